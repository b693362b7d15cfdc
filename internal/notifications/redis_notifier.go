package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultStream = "posts:published"

// RedisNotifier appends publication events to a redis stream so feed and
// mail consumers can pick them up independently of the API.
type RedisNotifier struct {
	rdb    redis.Cmdable
	stream string
	maxLen int64
}

func NewRedisNotifier(rdb redis.Cmdable, stream string) *RedisNotifier {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisNotifier{rdb: rdb, stream: stream, maxLen: 10000}
}

func (n *RedisNotifier) PostPublished(ctx context.Context, in PostPublishedInput) error {
	err := n.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"postId":      in.PostID,
			"authorId":    in.AuthorID,
			"title":       in.Title,
			"publishedAt": in.PublishedAt.UTC().Format(time.RFC3339Nano),
			"requestId":   in.RequestID,
		},
	}).Err()

	if err != nil {
		return fmt.Errorf("xadd %s: %w", n.stream, err)
	}
	return nil
}
