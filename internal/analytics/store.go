package analytics

import "context"

// DefaultRecentLimit caps denial listings when the caller gives no limit.
const DefaultRecentLimit = 50

// Store persists denial events.
type Store interface {
	SaveRateLimitExceeded(ctx context.Context, event *RateLimitExceededEvent) error
}

// DenialReader lists the most recent denial events, newest first.
type DenialReader interface {
	Recent(ctx context.Context, limit int) ([]RateLimitExceededEvent, error)
}

// DenialLog is a store that can also be read back.
type DenialLog interface {
	Store
	DenialReader
}
