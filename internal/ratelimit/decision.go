package ratelimit

import (
	"math"
	"time"
)

// Decision is the outcome of a single rate limit check.
type Decision struct {
	// Allowed is false when the caller must reject the request.
	Allowed bool
	// Remaining is the number of requests left in the current window, never negative.
	Remaining int64
	// ResetAt is when the current window ends.
	ResetAt time.Time
	// Limit is the policy maximum the decision was computed against.
	Limit int64
}

func newDecision(policy Policy, count int64, resetAt time.Time) Decision {
	return Decision{
		Allowed:   count <= policy.MaxRequests,
		Remaining: max(0, policy.MaxRequests-count),
		ResetAt:   resetAt,
		Limit:     policy.MaxRequests,
	}
}

// RetryAfter returns how long a denied caller should wait, rounded up to whole seconds.
// Allowed decisions return zero.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.Allowed {
		return 0
	}

	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}

	return time.Duration(math.Ceil(wait.Seconds())) * time.Second
}
