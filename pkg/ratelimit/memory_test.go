package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(ms int64) time.Time { return time.UnixMilli(ms) }

func TestSlidingWindowRejectsOverQuota(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(5, time.Minute)
	base := int64(1_700_000_000_000)

	for i := 0; i < 5; i++ {
		d, err := l.CheckAndRecord(ctx, "10.0.0.1", at(base+int64(i)*1000))
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, i+1, d.Count)
	}

	now := at(base + 4000)
	d, err := l.CheckAndRecord(ctx, "10.0.0.1", now)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 5, d.Count)
	assert.Equal(t, 5, d.Limit)
	// oldest at base, expires at base+60000; 56s remain
	assert.Equal(t, 56, d.RetryAfter)

	// once the earliest timestamp is a full window old, a slot frees up
	d, err = l.CheckAndRecord(ctx, "10.0.0.1", at(base+60_000))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestSlidingWindowKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(1, time.Minute)

	d, _ := l.CheckAndRecord(ctx, "a", at(0))
	require.True(t, d.Allowed)
	d, _ = l.CheckAndRecord(ctx, "a", at(1))
	require.False(t, d.Allowed)

	d, _ = l.CheckAndRecord(ctx, "b", at(1))
	assert.True(t, d.Allowed)
}

func TestPeekDoesNotRecord(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(5, time.Minute)

	_, _ = l.CheckAndRecord(ctx, "k", at(0))
	_, _ = l.CheckAndRecord(ctx, "k", at(10))

	for i := 0; i < 10; i++ {
		u, err := l.Peek(ctx, "k", at(20))
		require.NoError(t, err)
		assert.Equal(t, Usage{Count: 2, Limit: 5}, u)
	}

	u, _ := l.Peek(ctx, "unknown-key", at(20))
	assert.Equal(t, 0, u.Count)
	assert.Equal(t, 1, l.Keys(), "peek must not create keys")
}

func TestPeekIgnoresExpiredTimestamps(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(5, time.Second)

	_, _ = l.CheckAndRecord(ctx, "k", at(0))
	_, _ = l.CheckAndRecord(ctx, "k", at(500))

	u, _ := l.Peek(ctx, "k", at(1000))
	assert.Equal(t, 1, u.Count, "timestamp exactly one window old is stale")
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		name                string
		oldest, window, now int64
		want                int
	}{
		{"rounds up partial second", 0, 1000, 200, 1},
		{"exact seconds", 0, 60_000, 30_000, 30},
		{"one millisecond left", 0, 60_000, 59_999, 1},
		{"already expired clamps to zero", 0, 1000, 1500, 0},
		{"boundary", 0, 1000, 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryAfterSeconds(tt.oldest, tt.window, tt.now))
		})
	}
}

// Quota 2 per second: t=0 ok, t=100 ok, t=200 rejected (1s), t=1001 ok.
func TestSlidingWindowScenario(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(2, time.Second)

	steps := []struct {
		at         int64
		allowed    bool
		retryAfter int
	}{
		{0, true, 0},
		{100, true, 0},
		{200, false, 1},
		{1001, true, 0},
	}
	for _, s := range steps {
		d, err := l.CheckAndRecord(ctx, "client", at(s.at))
		require.NoError(t, err)
		assert.Equal(t, s.allowed, d.Allowed, "t=%d", s.at)
		assert.Equal(t, s.retryAfter, d.RetryAfter, "t=%d", s.at)
	}
}

func TestSweepDropsOnlyIdleKeys(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(5, time.Second)

	_, _ = l.CheckAndRecord(ctx, "idle", at(0))
	_, _ = l.CheckAndRecord(ctx, "active", at(900))
	require.Equal(t, 2, l.Keys())

	removed := l.Sweep(at(1500))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, l.Keys())

	u, _ := l.Peek(ctx, "active", at(1500))
	assert.Equal(t, 1, u.Count)
}

func TestRunStopsOnCancel(t *testing.T) {
	l := NewSlidingWindow(1, time.Millisecond)
	_, _ = l.CheckAndRecord(context.Background(), "k", time.Now().Add(-time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return l.Keys() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunWithoutIntervalReturns(t *testing.T) {
	l := NewSlidingWindow(1, time.Minute)
	done := make(chan struct{})
	go func() {
		l.Run(context.Background(), 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with a zero interval should return immediately")
	}
}

func TestSubMillisecondWindowStillEnforcesQuota(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(1, 500*time.Microsecond)
	assert.Equal(t, time.Millisecond, l.Window())

	admitted := 0
	for range 10 {
		d, err := l.CheckAndRecord(ctx, "k", at(1000))
		require.NoError(t, err)
		if d.Allowed {
			admitted++
		}
	}
	assert.Equal(t, 1, admitted)
}

func TestConcurrentSameKeyNeverExceedsQuota(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(5, time.Minute)
	now := at(1_000)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, _ := l.CheckAndRecord(ctx, "shared", now)
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}

func TestParseFailureMode(t *testing.T) {
	m, err := ParseFailureMode("")
	require.NoError(t, err)
	assert.Equal(t, FailOpen, m)

	m, err = ParseFailureMode("closed")
	require.NoError(t, err)
	assert.Equal(t, FailClosed, m)

	_, err = ParseFailureMode("ajar")
	assert.Error(t, err)
}
