package notifications

import (
	"context"
	"errors"
)

// ObservedNotifier reports the outcome of every send as ok, error or
// circuit_open.
type ObservedNotifier struct {
	inner   Notifier
	observe func(result string)
}

func NewObservedNotifier(inner Notifier, observe func(result string)) *ObservedNotifier {
	return &ObservedNotifier{inner: inner, observe: observe}
}

func (n *ObservedNotifier) PostPublished(ctx context.Context, in PostPublishedInput) error {
	err := n.inner.PostPublished(ctx, in)

	if n.observe != nil {
		n.observe(resultLabel(err))
	}
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}
