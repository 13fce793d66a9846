package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mzdss/sms-pin-auth/internal/config"
)

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	limiter := NewRateLimiterService(config.RateLimit{MaxAttempts: 3, Window: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow("phone-a"), "attempt %d should pass", i+1)
	}
	require.False(t, limiter.Allow("phone-a"), "attempt over the cap must be denied")
	require.False(t, limiter.Allow("phone-a"))
}

func TestRateLimiterWindowReset(t *testing.T) {
	limiter := NewRateLimiterService(config.RateLimit{MaxAttempts: 2, Window: 50 * time.Millisecond})
	defer limiter.Stop()

	require.True(t, limiter.Allow("phone-b"))
	require.True(t, limiter.Allow("phone-b"))
	require.False(t, limiter.Allow("phone-b"))

	time.Sleep(60 * time.Millisecond)

	require.True(t, limiter.Allow("phone-b"), "expired window must reset lazily")
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiterService(config.RateLimit{MaxAttempts: 1, Window: time.Minute})
	defer limiter.Stop()

	require.True(t, limiter.Allow("phone-c"))
	require.False(t, limiter.Allow("phone-c"))
	require.True(t, limiter.Allow("phone-d"), "other keys keep their own window")
}

func TestRateLimiterRemaining(t *testing.T) {
	limiter := NewRateLimiterService(config.RateLimit{MaxAttempts: 3, Window: time.Minute})
	defer limiter.Stop()

	require.Equal(t, 3, limiter.Remaining("phone-e"))
	limiter.Allow("phone-e")
	limiter.Allow("phone-e")
	require.Equal(t, 1, limiter.Remaining("phone-e"))
	limiter.Allow("phone-e")
	limiter.Allow("phone-e")
	require.Equal(t, 0, limiter.Remaining("phone-e"))
}
