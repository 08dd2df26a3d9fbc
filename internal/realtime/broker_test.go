package realtime

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransientErrorClassifiesConnectionFailuresAsRetryable(t *testing.T) {
	assert.True(t, isTransientError(errors.New("dial tcp: connection refused")))
	assert.True(t, isTransientError(errors.New("read tcp: i/o timeout")))
	assert.False(t, isTransientError(errors.New("NOAUTH Authentication required")))
	assert.False(t, isTransientError(nil))
}

func TestCalculateRetryDelayGrowsAndCaps(t *testing.T) {
	first := calculateRetryDelay(1)
	assert.InDelta(t, float64(time.Second), float64(first), float64(subscriberJitterPercent)*float64(time.Second)+1)

	late := calculateRetryDelay(20)
	maxWithJitter := time.Duration(float64(subscriberMaxRetryDelay) * (1 + subscriberJitterPercent))
	assert.LessOrEqual(t, late, maxWithJitter)
}

func openTestBroker(t *testing.T) (*Broker, *Registry) {
	t.Helper()
	url := os.Getenv("NOMMIE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("NOMMIE_TEST_REDIS_URL not set, skipping redis-backed test")
	}
	registry := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	b, err := NewBroker(ctx, url, registry, slog.Disabled)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b, registry
}

// TestPublishGameStateAvailableReachesRegisteredSubscriber drives a real
// Redis round trip: publish on one broker instance, observe the
// registry-attached subscriber receive the fanned-out message once the
// background subscriber loop has processed it.
func TestPublishGameStateAvailableReachesRegisteredSubscriber(t *testing.T) {
	b, registry := openTestBroker(t)
	ctx := context.Background()

	sub := &recordingSubscriber{}
	registry.Register(9, 1, sub)

	require.NoError(t, b.PublishGameStateAvailable(ctx, 9, 4))

	require.Eventually(t, func() bool {
		return len(sub.messages()) == 1
	}, 2*time.Second, 20*time.Millisecond)

	msg := sub.messages()[0]
	assert.Equal(t, "game_state_available", msg.Type)
	assert.EqualValues(t, 4, msg.Version)
}
