package ratelimit

import (
	"context"
	"fmt"
)

// Observer receives limiter activity, used for metrics.
type Observer interface {
	ObserveDecision(preset Preset, decision Decision)
	ObserveSweep(preset Preset, evicted, remaining int)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(Preset, Decision) {}
func (nopObserver) ObserveSweep(Preset, int, int)    {}

// Set enforces a group of named presets. Every preset has its own Registry,
// so counters are never shared between presets.
type Set struct {
	limiters map[Preset]*FixedWindowLimiter
	presets  []Preset
	observer Observer
	clock    Clock
}

// SetOption configures a Set.
type SetOption func(*setConfig)

type setConfig struct {
	observer Observer
	registry []Option
	clock    Clock
}

// WithObserver sets the activity observer.
func WithObserver(observer Observer) SetOption {
	return func(c *setConfig) {
		c.observer = observer
	}
}

// WithRegistryOptions applies options to every preset registry.
func WithRegistryOptions(opts ...Option) SetOption {
	return func(c *setConfig) {
		c.registry = append(c.registry, opts...)
	}
}

// WithSetClock sets the clock shared by all preset registries.
func WithSetClock(clock Clock) SetOption {
	return func(c *setConfig) {
		c.clock = clock
	}
}

// NewSet builds one limiter per policy. It fails if any policy is invalid.
func NewSet(policies map[Preset]Policy, opts ...SetOption) (*Set, error) {
	cfg := &setConfig{
		observer: nopObserver{},
		clock:    SystemClock{},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	s := &Set{
		limiters: make(map[Preset]*FixedWindowLimiter, len(policies)),
		presets:  sortedPresets(policies),
		observer: cfg.observer,
		clock:    cfg.clock,
	}

	for _, preset := range s.presets {
		registryOpts := append([]Option{}, cfg.registry...)
		registryOpts = append(registryOpts,
			WithClock(cfg.clock),
			WithOnSweep(func(evicted, remaining int) {
				s.observer.ObserveSweep(preset, evicted, remaining)
			}),
		)

		limiter, err := NewFixedWindowLimiter(preset, policies[preset], registryOpts...)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", preset, err)
		}

		s.limiters[preset] = limiter
	}

	return s, nil
}

// Check records a request for identifier against the named preset.
func (s *Set) Check(ctx context.Context, preset Preset, identifier string) (Decision, error) {
	limiter, err := s.limiter(preset)
	if err != nil {
		return Decision{}, err
	}

	decision, err := limiter.Allow(ctx, identifier)
	if err != nil {
		return Decision{}, err
	}

	s.observer.ObserveDecision(preset, decision)

	return decision, nil
}

// Peek reports the state of identifier under the named preset without recording a request.
func (s *Set) Peek(preset Preset, identifier string) (Decision, error) {
	limiter, err := s.limiter(preset)
	if err != nil {
		return Decision{}, err
	}

	return limiter.Peek(identifier)
}

// Limiter returns the limiter for a preset.
func (s *Set) Limiter(preset Preset) (*FixedWindowLimiter, bool) {
	limiter, ok := s.limiters[preset]

	return limiter, ok
}

// Policy returns the policy configured for a preset.
func (s *Set) Policy(preset Preset) (Policy, bool) {
	limiter, ok := s.limiters[preset]
	if !ok {
		return Policy{}, false
	}

	return limiter.Policy(), true
}

// Presets returns the configured preset names in sorted order.
func (s *Set) Presets() []Preset {
	return append([]Preset(nil), s.presets...)
}

// Clock returns the time source shared by the preset registries.
func (s *Set) Clock() Clock {
	return s.clock
}

// Sweep runs one eviction pass over every preset and returns the total evicted.
func (s *Set) Sweep() int {
	evicted := 0

	for _, preset := range s.presets {
		evicted += s.limiters[preset].Registry().Sweep()
	}

	return evicted
}

// Stats returns the number of stored entries per preset.
func (s *Set) Stats() map[Preset]int {
	stats := make(map[Preset]int, len(s.presets))

	for _, preset := range s.presets {
		stats[preset] = s.limiters[preset].Registry().Len()
	}

	return stats
}

// Start launches the background sweep of every preset registry.
func (s *Set) Start(ctx context.Context) {
	for _, preset := range s.presets {
		s.limiters[preset].Registry().Start(ctx)
	}
}

// Shutdown stops every background sweep.
func (s *Set) Shutdown() error {
	for _, preset := range s.presets {
		s.limiters[preset].Registry().Stop()
	}

	return nil
}

func (s *Set) limiter(preset Preset) (*FixedWindowLimiter, error) {
	limiter, ok := s.limiters[preset]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}

	return limiter, nil
}
