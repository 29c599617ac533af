package ratelimit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimiter(t *testing.T) *Limiter {
	t.Helper()
	cfg := config.DefaultRateLimitConfig()
	cfg.BucketCapacity = 2
	cfg.RefillRate = 1
	cfg.RefillInterval = time.Second
	cfg.WindowSize = time.Minute
	cfg.WindowLimit = 2
	cfg.PerDomainDelay = 20 * time.Millisecond
	cfg.IdleEvictionAge = 50 * time.Millisecond
	cfg.EvictionInterval = 10 * time.Millisecond

	l := New(cfg)
	t.Cleanup(l.Stop)
	return l
}

func TestLimiter_AllowsWithinBucketCapacity(t *testing.T) {
	l := testLimiter(t)

	assert.True(t, l.Allow("discovery", "user-1"))
	assert.True(t, l.Allow("discovery", "user-1"))
	assert.False(t, l.Allow("discovery", "user-1"), "third call exceeds bucket+window capacity")
}

func TestLimiter_IdentifiersAreIndependent(t *testing.T) {
	l := testLimiter(t)

	assert.True(t, l.Allow("discovery", "user-1"))
	assert.True(t, l.Allow("discovery", "user-1"))
	assert.True(t, l.Allow("discovery", "user-2"), "a different client identifier has its own bucket")
}

func TestLimiter_SlidingWindowCapsSustainedRate(t *testing.T) {
	cfg := config.DefaultRateLimitConfig()
	cfg.BucketCapacity = 100
	cfg.RefillRate = 100
	cfg.RefillInterval = time.Second
	cfg.WindowSize = time.Minute
	cfg.WindowLimit = 1
	cfg.EvictionInterval = time.Hour
	cfg.IdleEvictionAge = time.Hour

	l := New(cfg)
	t.Cleanup(l.Stop)

	assert.True(t, l.Allow("generation", "provider-openai"))
	assert.False(t, l.Allow("generation", "provider-openai"), "window limit of 1 blocks the second call")
}

func TestLimiter_WaitForDomainEnforcesDelay(t *testing.T) {
	l := testLimiter(t)
	ctx := context.Background()

	require.NoError(t, l.WaitForDomain(ctx, "www.mymoment.ch"))
	start := time.Now()
	require.NoError(t, l.WaitForDomain(ctx, "www.mymoment.ch"))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestLimiter_WaitForDomainSerializesConcurrentCallers(t *testing.T) {
	l := testLimiter(t)
	ctx := context.Background()

	const callers = 5
	timestamps := make([]time.Time, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer wg.Done()
			require.NoError(t, l.WaitForDomain(ctx, "www.mymoment.ch"))
			timestamps[i] = time.Now()
		}()
	}
	wg.Wait()

	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })
	for i := 1; i < callers; i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		assert.GreaterOrEqual(t, gap, 15*time.Millisecond,
			"consecutive completions for the same domain should be spaced by the politeness delay")
	}
}

func TestLimiter_WaitRespectsContextCancellation(t *testing.T) {
	cfg := config.DefaultRateLimitConfig()
	cfg.BucketCapacity = 1
	cfg.RefillRate = 1
	cfg.RefillInterval = time.Hour
	cfg.WindowSize = time.Minute
	cfg.WindowLimit = 10
	cfg.EvictionInterval = time.Hour
	cfg.IdleEvictionAge = time.Hour

	l := New(cfg)
	t.Cleanup(l.Stop)

	require.True(t, l.Allow("posting", "login-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, "posting", "login-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
