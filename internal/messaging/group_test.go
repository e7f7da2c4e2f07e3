package messaging_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/serroba/motoconnect/internal/analytics"
	"github.com/serroba/motoconnect/internal/messaging"
	"github.com/serroba/motoconnect/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubRunnable records lifecycle calls in the order the group makes them.
type stubRunnable struct {
	name        string
	calls       *[]string
	startErr    error
	shutdownErr error
}

func (s *stubRunnable) Start(_ context.Context) error {
	*s.calls = append(*s.calls, "start "+s.name)

	return s.startErr
}

func (s *stubRunnable) Shutdown() error {
	*s.calls = append(*s.calls, "shutdown "+s.name)

	return s.shutdownErr
}

type closeCountingSubscriber struct {
	*mockSubscriber

	mu     sync.Mutex
	closed int
	err    error
}

func (s *closeCountingSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed++

	return s.err
}

func TestConsumerGroup_Start(t *testing.T) {
	tests := []struct {
		name      string
		startErrs map[string]error
		wantErr   bool
		wantCalls []string
	}{
		{
			name:      "starts every consumer in order",
			wantCalls: []string{"start a", "start b", "start c"},
		},
		{
			name:      "rolls back started consumers in reverse on failure",
			startErrs: map[string]error{"c": errors.New("subscribe refused")},
			wantErr:   true,
			wantCalls: []string{"start a", "start b", "start c", "shutdown b", "shutdown a"},
		},
		{
			name:      "first failure leaves nothing to roll back",
			startErrs: map[string]error{"a": errors.New("subscribe refused")},
			wantErr:   true,
			wantCalls: []string{"start a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string

			group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
			for _, name := range []string{"a", "b", "c"} {
				group.Add(&stubRunnable{name: name, calls: &calls, startErr: tt.startErrs[name]})
			}

			err := group.Start(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "subscribe refused")
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, 3, group.Len())
		})
	}
}

func TestConsumerGroup_Shutdown(t *testing.T) {
	t.Run("closes the subscriber after the consumers", func(t *testing.T) {
		var calls []string

		sub := &closeCountingSubscriber{mockSubscriber: newMockSubscriber()}
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		group.Add(&stubRunnable{name: "denials", calls: &calls})

		require.NoError(t, group.Start(context.Background()))
		require.NoError(t, group.Shutdown())

		assert.Equal(t, []string{"start denials", "shutdown denials"}, calls)
		assert.Equal(t, 1, sub.closed)
	})

	t.Run("joins consumer and subscriber errors", func(t *testing.T) {
		var calls []string

		sub := &closeCountingSubscriber{mockSubscriber: newMockSubscriber(), err: errors.New("connection reset")}
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		group.Add(&stubRunnable{name: "a", calls: &calls, shutdownErr: errors.New("ack pending")})
		group.Add(&stubRunnable{name: "b", calls: &calls})

		err := group.Shutdown()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ack pending")
		assert.Contains(t, err.Error(), "close subscriber: connection reset")
		assert.Equal(t, []string{"shutdown a", "shutdown b"}, calls)
		assert.Equal(t, 1, sub.closed)
	})
}

func TestConsumerGroup_DenialPipeline(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, messaging.NewZapLogger(zap.NewNop()))
	denials := store.NewMemoryStore(10)

	group := messaging.NewConsumerGroup(pubSub, zap.NewNop())
	group.Add(analytics.NewDenialConsumer(pubSub, denials, zap.NewNop()))

	require.NoError(t, group.Start(context.Background()))

	publish := analytics.NewDenialPublisher(pubSub)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, identifier := range []string{"203.0.113.7", "198.51.100.4"} {
		event := analytics.NewRateLimitExceededEvent("auth", identifier, 5, now.Add(15*time.Minute), now)
		require.NoError(t, publish(context.Background(), event))
	}

	assert.Eventually(t, func() bool {
		return denials.Len() == 2
	}, time.Second, 5*time.Millisecond)

	recent, err := denials.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.4", recent[0].Identifier)
	assert.Equal(t, "auth", recent[1].Preset)

	require.NoError(t, group.Shutdown())
}
