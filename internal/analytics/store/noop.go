package store

import (
	"context"

	"github.com/serroba/motoconnect/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveRateLimitExceeded(_ context.Context, event *analytics.RateLimitExceededEvent) error {
	n.logger.Info("rate limit exceeded event received",
		zap.String("id", event.ID),
		zap.String("preset", event.Preset),
		zap.String("identifier", event.Identifier),
		zap.String("method", event.Method),
		zap.String("path", event.Path),
		zap.Int64("limit", event.Limit),
		zap.Time("resetAt", event.ResetAt),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}

// Recent always returns an empty list; events are only logged.
func (n *Noop) Recent(_ context.Context, _ int) ([]analytics.RateLimitExceededEvent, error) {
	return []analytics.RateLimitExceededEvent{}, nil
}

var _ analytics.DenialLog = (*Noop)(nil)
