package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes publication notices to the structured log. It is the
// fallback when no redis address is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) PostPublished(ctx context.Context, in PostPublishedInput) error {
	n.log.InfoContext(ctx, "notification.post_published",
		"post_id", in.PostID,
		"author_id", in.AuthorID,
		"title", in.Title,
		"request_id", in.RequestID,
	)
	return nil
}
