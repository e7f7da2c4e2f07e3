package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/motoconnect/internal/messaging"
)

// NewDenialPublisher returns a typed publish func bound to the denial topic.
func NewDenialPublisher(publisher message.Publisher) messaging.Publish[RateLimitExceededEvent] {
	return messaging.NewPublishFunc[RateLimitExceededEvent](publisher, TopicRateLimitExceeded)
}
