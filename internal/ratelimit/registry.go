package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

const (
	// DefaultSweepInterval is how often stale entries are evicted.
	DefaultSweepInterval = 10 * time.Minute
	// DefaultShards is the number of independently locked partitions of the counter map.
	DefaultShards = 32
)

// entry is the counting state of one identifier.
// It is stale once resetAt <= now and must then be treated as absent.
type entry struct {
	count   int64
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]entry
}

// Registry counts requests per identifier in fixed windows.
//
// The counter map is split into shards keyed by an xxhash of the identifier,
// so Check only contends with callers whose identifiers land on the same shard
// and a sweep only holds one shard lock at a time.
type Registry struct {
	clock    Clock
	shards   []*shard
	interval time.Duration
	logger   *zap.Logger
	onSweep  func(evicted, remaining int)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithSweepInterval sets how often the background sweep runs.
func WithSweepInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithShards sets the number of map partitions.
func WithShards(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.shards = newShards(n)
		}
	}
}

// WithLogger sets the logger used by the sweep task.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithOnSweep sets a callback invoked after every sweep pass, used for metrics.
func WithOnSweep(fn func(evicted, remaining int)) Option {
	return func(r *Registry) {
		r.onSweep = fn
	}
}

// NewRegistry creates an empty Registry. The sweep does not run until Start is called.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clock:    SystemClock{},
		shards:   newShards(DefaultShards),
		interval: DefaultSweepInterval,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func newShards(n int) []*shard {
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]entry)}
	}

	return shards
}

func (r *Registry) shardFor(identifier string) *shard {
	return r.shards[xxhash.Sum64String(identifier)%uint64(len(r.shards))]
}

// Check records one request for identifier and decides whether it is allowed.
//
// The counter is incremented even when the request is over the limit. A request
// arriving exactly at the window reset time starts a new window.
func (r *Registry) Check(identifier string, policy Policy) (Decision, error) {
	if err := policy.Validate(); err != nil {
		return Decision{}, err
	}

	now := r.clock.Now()
	s := r.shardFor(identifier)

	s.mu.Lock()

	e, ok := s.entries[identifier]
	if !ok || !e.resetAt.After(now) {
		e = entry{resetAt: now.Add(policy.Window)}
	}

	e.count++
	s.entries[identifier] = e

	s.mu.Unlock()

	return newDecision(policy, e.count, e.resetAt), nil
}

// Peek reports what the next Check for identifier would see without recording a request.
// Allowed is true when the next request would still fit in the window.
func (r *Registry) Peek(identifier string, policy Policy) (Decision, error) {
	if err := policy.Validate(); err != nil {
		return Decision{}, err
	}

	now := r.clock.Now()
	s := r.shardFor(identifier)

	s.mu.Lock()
	e, ok := s.entries[identifier]
	s.mu.Unlock()

	if !ok || !e.resetAt.After(now) {
		return Decision{
			Allowed:   true,
			Remaining: policy.MaxRequests,
			ResetAt:   now.Add(policy.Window),
			Limit:     policy.MaxRequests,
		}, nil
	}

	return Decision{
		Allowed:   e.count < policy.MaxRequests,
		Remaining: max(0, policy.MaxRequests-e.count),
		ResetAt:   e.resetAt,
		Limit:     policy.MaxRequests,
	}, nil
}

// Sweep evicts every entry whose window has ended and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.clock.Now()
	evicted := 0
	remaining := 0

	for _, s := range r.shards {
		s.mu.Lock()

		for identifier, e := range s.entries {
			if !e.resetAt.After(now) {
				delete(s.entries, identifier)

				evicted++
			}
		}

		remaining += len(s.entries)

		s.mu.Unlock()
	}

	if r.onSweep != nil {
		r.onSweep(evicted, remaining)
	}

	return evicted
}

// Len returns the number of stored entries, stale ones included.
func (r *Registry) Len() int {
	n := 0

	for _, s := range r.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}

	return n
}

// Start launches the background sweep. Calling Start on a running registry is a no-op.
func (r *Registry) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.sweepLoop(ctx, r.done)
}

// Stop cancels the background sweep and waits for it to exit.
func (r *Registry) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (r *Registry) sweepLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := r.Sweep(); evicted > 0 {
				r.logger.Debug("evicted stale rate limit entries", zap.Int("evicted", evicted))
			}
		}
	}
}
