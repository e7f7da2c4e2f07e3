package ratelimit

import (
	"context"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow records a request from identifier and reports whether it may proceed.
	Allow(ctx context.Context, identifier string) (Decision, error)
}

// FixedWindowLimiter applies one policy over its own Registry.
type FixedWindowLimiter struct {
	preset   Preset
	policy   Policy
	registry *Registry
}

// NewFixedWindowLimiter creates a limiter for a named policy.
// It fails with ErrInvalidPolicy rather than building a limiter that would reject every call.
func NewFixedWindowLimiter(preset Preset, policy Policy, opts ...Option) (*FixedWindowLimiter, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return &FixedWindowLimiter{
		preset:   preset,
		policy:   policy,
		registry: NewRegistry(opts...),
	}, nil
}

func (l *FixedWindowLimiter) Allow(_ context.Context, identifier string) (Decision, error) {
	return l.registry.Check(identifier, l.policy)
}

// Peek reports the state the next Allow for identifier would see.
func (l *FixedWindowLimiter) Peek(identifier string) (Decision, error) {
	return l.registry.Peek(identifier, l.policy)
}

// Preset returns the preset name this limiter enforces.
func (l *FixedWindowLimiter) Preset() Preset {
	return l.preset
}

// Policy returns the enforced policy.
func (l *FixedWindowLimiter) Policy() Policy {
	return l.policy
}

// Registry returns the underlying counter registry.
func (l *FixedWindowLimiter) Registry() *Registry {
	return l.registry
}
