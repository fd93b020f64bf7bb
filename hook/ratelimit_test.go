package hook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimitHookAllowsWithinLimit(t *testing.T) {
	h := NewRateLimitHook(3, time.Minute)
	defer h.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, h.OnPublish("c1", "t", nil))
	}
}

func TestRateLimitHookRejectsOverLimit(t *testing.T) {
	h := NewRateLimitHook(2, time.Minute)
	defer h.Stop()

	require.NoError(t, h.OnPublish("c1", "t", nil))
	require.NoError(t, h.OnPublish("c1", "t", nil))
	require.ErrorIs(t, h.OnPublish("c1", "t", nil), ErrRateLimitExceeded)
	require.Equal(t, 1, h.ExceededCount("c1"))
}

func TestRateLimitHookTracksClientsIndependently(t *testing.T) {
	h := NewRateLimitHook(1, time.Minute)
	defer h.Stop()

	require.NoError(t, h.OnPublish("c1", "t", nil))
	require.NoError(t, h.OnPublish("c2", "t", nil))
	require.ErrorIs(t, h.OnPublish("c1", "t", nil), ErrRateLimitExceeded)
	require.ErrorIs(t, h.OnPublish("c2", "t", nil), ErrRateLimitExceeded)
	require.Equal(t, 2, h.ActiveClients())
}

func TestRateLimitHookResetClient(t *testing.T) {
	h := NewRateLimitHook(1, time.Minute)
	defer h.Stop()

	require.NoError(t, h.OnPublish("c1", "t", nil))
	require.ErrorIs(t, h.OnPublish("c1", "t", nil), ErrRateLimitExceeded)

	h.ResetClient("c1")
	require.NoError(t, h.OnPublish("c1", "t", nil))
	require.Equal(t, 0, h.ExceededCount("c1"))
}

func TestRateLimitHookProvidesOnlyPublish(t *testing.T) {
	h := NewRateLimitHook(1, time.Minute)
	defer h.Stop()

	require.True(t, h.Provides(OnPublish))
	require.False(t, h.Provides(OnConnect))
	require.False(t, h.Provides(OnSubscribe))
	require.False(t, h.Provides(OnDisconnect))
}
