package analytics_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/motoconnect/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSubscriber struct {
	msgChan      chan *message.Message
	topics       []string
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, topic string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	m.mu.Lock()
	m.topics = append(m.topics, topic)
	m.mu.Unlock()

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

type mockStore struct {
	events  []*analytics.RateLimitExceededEvent
	saveErr error
	mu      sync.Mutex
}

func (m *mockStore) SaveRateLimitExceeded(_ context.Context, event *analytics.RateLimitExceededEvent) error {
	if m.saveErr != nil {
		return m.saveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)

	return nil
}

func denialMessage(t *testing.T, event *analytics.RateLimitExceededEvent) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func TestNewDenialConsumer(t *testing.T) {
	t.Run("subscribes to the denial topic", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := analytics.NewDenialConsumer(sub, &mockStore{}, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))

		assert.Equal(t, analytics.TopicRateLimitExceeded, consumer.Topic())
		assert.Equal(t, []string{analytics.TopicRateLimitExceeded}, sub.topics)

		_ = consumer.Shutdown()
	})

	t.Run("returns error when subscription fails", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := analytics.NewDenialConsumer(sub, &mockStore{}, zap.NewNop())

		err := consumer.Start(context.Background())

		assert.Error(t, err)
	})
}

func TestDenialConsumer_Process(t *testing.T) {
	t.Run("persists denial events", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{}
		consumer := analytics.NewDenialConsumer(sub, store, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))

		event := analytics.NewRateLimitExceededEvent("auth", "1.2.3.4", 5, time.Now().Add(time.Minute), time.Now())
		event.Method = "POST"
		event.Path = "/v1/auth/login"
		msg := denialMessage(t, event)

		sub.msgChan <- msg

		select {
		case <-msg.Acked():
			// Success
		case <-msg.Nacked():
			t.Fatal("message was nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		store.mu.Lock()
		defer store.mu.Unlock()

		require.Len(t, store.events, 1)
		assert.Equal(t, event.ID, store.events[0].ID)
		assert.Equal(t, "/v1/auth/login", store.events[0].Path)

		_ = consumer.Shutdown()
	})

	t.Run("nacks on store error", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{saveErr: errors.New("store error")}
		consumer := analytics.NewDenialConsumer(sub, store, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))

		msg := denialMessage(t, analytics.NewRateLimitExceededEvent("api", "5.6.7.8", 100, time.Now(), time.Now()))

		sub.msgChan <- msg

		select {
		case <-msg.Nacked():
			// Success - message was nacked
		case <-msg.Acked():
			t.Fatal("message should have been nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for nack")
		}

		_ = consumer.Shutdown()
	})
}

func TestSaveDenial(t *testing.T) {
	t.Run("wraps store errors with the event id", func(t *testing.T) {
		storeErr := errors.New("store error")
		handler := analytics.SaveDenial(&mockStore{saveErr: storeErr}, zap.NewNop())
		event := &analytics.RateLimitExceededEvent{ID: "evt-1"}

		err := handler(context.Background(), event)

		require.ErrorIs(t, err, storeErr)
		assert.Contains(t, err.Error(), "evt-1")
	})
}
