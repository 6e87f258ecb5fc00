package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
		{name: "single token", rps: 0.5, burst: 1, calls: 4, wantPass: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for range tt.calls {
				if rl.Allow("10.0.0.1") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	assert.True(t, rl.Allow("key1"))
	assert.False(t, rl.Allow("key1"), "key1 should be exhausted")
	assert.True(t, rl.Allow("key2"), "key2 should be independent")
	assert.Equal(t, 2, rl.Len())
}

func TestKeyedRateLimiter_WaitContextCanceled(t *testing.T) {
	rl := New(0.1, 1) // one request per 10 seconds
	defer rl.Stop()

	require.True(t, rl.Allow("test"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx, "test"))
}

func TestKeyedRateLimiter_EvictIdle(t *testing.T) {
	rl := NewWithTTL(1, 1, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	require.True(t, rl.Allow("old"))
	now = now.Add(45 * time.Second)
	require.True(t, rl.Allow("recent"))

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, rl.evictIdle())
	assert.Equal(t, 1, rl.Len())

	// An evicted key starts with a full bucket.
	assert.True(t, rl.Allow("old"))
	assert.False(t, rl.Allow("recent"))
}
