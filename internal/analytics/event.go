package analytics

import (
	"time"

	"github.com/google/uuid"
)

const TopicRateLimitExceeded = "ratelimit.exceeded"

// RateLimitExceededEvent is emitted each time a request is rejected by the limiter.
type RateLimitExceededEvent struct {
	ID         string    `json:"id"`
	Preset     string    `json:"preset"`
	Identifier string    `json:"identifier"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	RequestID  string    `json:"requestId,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	Limit      int64     `json:"limit"`
	ResetAt    time.Time `json:"resetAt"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewRateLimitExceededEvent stamps a fresh event ID and occurrence time.
func NewRateLimitExceededEvent(preset, identifier string, limit int64, resetAt, now time.Time) *RateLimitExceededEvent {
	return &RateLimitExceededEvent{
		ID:         uuid.NewString(),
		Preset:     preset,
		Identifier: identifier,
		Limit:      limit,
		ResetAt:    resetAt.UTC(),
		OccurredAt: now.UTC(),
	}
}
