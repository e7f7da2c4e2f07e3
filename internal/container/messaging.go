package container

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/samber/do"
	"github.com/serroba/motoconnect/internal/analytics"
	"github.com/serroba/motoconnect/internal/messaging"
	"github.com/serroba/motoconnect/internal/metrics"
	"go.uber.org/zap"
)

const denialConsumerGroup = "motoconnect-denials"

// channelBuffer sizes the in-process broker output channels.
const channelBuffer = 256

// BrokerPackage provides the in-process Go channel pub/sub used by the memory broker.
func BrokerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		logger := do.MustInvoke[*zap.Logger](i).Named("broker")

		return gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: channelBuffer,
		}, messaging.NewZapLogger(logger)), nil
	})
}

// PublisherGroupPackage provides the message publisher and the typed denial publish func.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i).Named("publisher")

		var (
			publisher message.Publisher
			err       error
		)

		switch opts.Broker {
		case BrokerRedis:
			client := do.MustInvoke[*RedisClient](i)
			publisher, err = redisstream.NewPublisher(redisstream.PublisherConfig{
				Client: client.Client,
			}, messaging.NewZapLogger(logger))
		default:
			publisher = do.MustInvoke[*gochannel.GoChannel](i)
		}

		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[analytics.RateLimitExceededEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		return countPublished(analytics.NewDenialPublisher(group.Publisher()), m), nil
	})
}

func countPublished[T any](publish messaging.Publish[T], m *metrics.Metrics) messaging.Publish[T] {
	return func(ctx context.Context, event *T) error {
		err := publish(ctx, event)
		m.IncDenialPublished(err)

		return err
	}
}

// ConsumerGroupPackage provides the consumer group persisting denial events.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		denials := do.MustInvoke[analytics.DenialLog](i)

		var (
			subscriber message.Subscriber
			err        error
		)

		switch opts.Broker {
		case BrokerRedis:
			client := do.MustInvoke[*RedisClient](i)
			subscriber, err = redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        client.Client,
				ConsumerGroup: denialConsumerGroup,
			}, messaging.NewZapLogger(logger.Named("subscriber")))
		default:
			subscriber = do.MustInvoke[*gochannel.GoChannel](i)
		}

		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewDenialConsumer(subscriber, denials, logger.Named("denials")))

		return group, nil
	})
}
