package analytics

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/motoconnect/internal/messaging"
	"go.uber.org/zap"
)

// NewDenialConsumer subscribes to denial events and hands each one to store.
func NewDenialConsumer(
	subscriber message.Subscriber,
	store Store,
	logger *zap.Logger,
) *messaging.Consumer[RateLimitExceededEvent] {
	return messaging.NewConsumer(subscriber, TopicRateLimitExceeded, SaveDenial(store, logger), logger)
}

// SaveDenial builds the handler that persists a denial event.
func SaveDenial(store Store, logger *zap.Logger) messaging.Handler[RateLimitExceededEvent] {
	return func(ctx context.Context, event *RateLimitExceededEvent) error {
		if err := store.SaveRateLimitExceeded(ctx, event); err != nil {
			return fmt.Errorf("save denial %s: %w", event.ID, err)
		}

		logger.Debug("denial recorded",
			zap.String("id", event.ID),
			zap.String("preset", event.Preset),
			zap.String("identifier", event.Identifier),
		)

		return nil
	}
}
