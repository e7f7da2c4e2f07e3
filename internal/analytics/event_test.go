package analytics_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/motoconnect/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimitExceededEvent(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	resetAt := now.Add(15 * time.Minute)

	event := analytics.NewRateLimitExceededEvent("auth", "1.2.3.4", 5, resetAt, now)

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "auth", event.Preset)
	assert.Equal(t, "1.2.3.4", event.Identifier)
	assert.Equal(t, int64(5), event.Limit)
	assert.Equal(t, time.UTC, event.OccurredAt.Location())
	assert.True(t, resetAt.Equal(event.ResetAt))

	other := analytics.NewRateLimitExceededEvent("auth", "1.2.3.4", 5, resetAt, now)
	assert.NotEqual(t, event.ID, other.ID)
}
