package notifications

import (
	"context"
	"time"
)

type PostPublishedInput struct {
	PostID      string
	AuthorID    string
	Title       string
	PublishedAt time.Time
	RequestID   string
}

type Notifier interface {
	PostPublished(ctx context.Context, input PostPublishedInput) error
}
