package store

import (
	"context"
	"sync"

	"github.com/serroba/motoconnect/internal/analytics"
)

// DefaultMemoryCapacity bounds the in-memory denial log.
const DefaultMemoryCapacity = 1000

// MemoryStore keeps the most recent denial events in a fixed-size ring.
type MemoryStore struct {
	mu     sync.RWMutex
	events []analytics.RateLimitExceededEvent
	next   int
	full   bool
}

// NewMemoryStore creates an in-memory denial log holding up to capacity events.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}

	return &MemoryStore{
		events: make([]analytics.RateLimitExceededEvent, capacity),
	}
}

func (m *MemoryStore) SaveRateLimitExceeded(_ context.Context, event *analytics.RateLimitExceededEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events[m.next] = *event
	m.next = (m.next + 1) % len(m.events)

	if m.next == 0 {
		m.full = true
	}

	return nil
}

// Recent returns up to limit events, newest first.
func (m *MemoryStore) Recent(_ context.Context, limit int) ([]analytics.RateLimitExceededEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.next
	if m.full {
		size = len(m.events)
	}

	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]analytics.RateLimitExceededEvent, 0, limit)

	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.events)) % len(m.events)
		out = append(out, m.events[idx])
	}

	return out, nil
}

// Len reports how many events are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.full {
		return len(m.events)
	}

	return m.next
}

var _ analytics.DenialLog = (*MemoryStore)(nil)
