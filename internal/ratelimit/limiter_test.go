package ratelimit_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/acavel/qrservice/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsUnderLimit(t *testing.T) {
	l := ratelimit.New(10, time.Minute)

	r := l.Check("ip:1.2.3.4")
	require.True(t, r.Allowed)
	assert.Equal(t, 10, r.Limit)
	assert.Equal(t, 9, r.Remaining)
}

func TestLimiterBlocksAtLimit(t *testing.T) {
	l := ratelimit.New(5, time.Minute)
	for range 5 {
		require.True(t, l.Check("ip:1.2.3.4").Allowed)
	}

	r := l.Check("ip:1.2.3.4")
	assert.False(t, r.Allowed)
	assert.Equal(t, 0, r.Remaining)
	assert.Greater(t, r.RetryAfterSecs, 0)
	assert.LessOrEqual(t, r.RetryAfterSecs, 60)
}

func TestLimiterKeysIndependent(t *testing.T) {
	l := ratelimit.New(2, time.Minute)
	for range 2 {
		l.Check("ip:a")
	}
	assert.False(t, l.Check("ip:a").Allowed)
	assert.True(t, l.Check("ip:b").Allowed)
}

func TestLimiterWindowResets(t *testing.T) {
	l := ratelimit.New(1, 50*time.Millisecond)

	require.True(t, l.Check("ip:x").Allowed)
	require.False(t, l.Check("ip:x").Allowed)

	time.Sleep(60 * time.Millisecond)
	assert.True(t, l.Check("ip:x").Allowed, "a fresh window must admit requests again")
}

// The check-and-update must be atomic: in a burst of N > limit concurrent
// requests, exactly limit may pass.
func TestLimiterConcurrentBurst(t *testing.T) {
	const limit = 50
	const burst = 200

	l := ratelimit.New(limit, time.Minute)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for range burst {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check("ip:burst").Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), allowed.Load())
}

func TestLimiterPrune(t *testing.T) {
	l := ratelimit.New(3, 20*time.Millisecond)
	l.Check("ip:stale")

	time.Sleep(30 * time.Millisecond)
	l.Prune()

	// A pruned key behaves exactly like a fresh one.
	r := l.Check("ip:stale")
	assert.True(t, r.Allowed)
	assert.Equal(t, 2, r.Remaining)
}
