package ratelimit

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// SlidingWindow is an in-process limiter keeping request timestamps per key.
//
// Timestamps older than the window are pruned lazily whenever a key is
// touched. Keys that stop sending requests are only removed by Sweep.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	log    map[string][]int64 // unix millis, oldest first
}

// NewSlidingWindow creates a limiter admitting limit requests per window.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	window = max(window, time.Millisecond)
	return &SlidingWindow{
		limit:  limit,
		window: window,
		log:    make(map[string][]int64),
	}
}

// Limit returns the configured quota.
func (s *SlidingWindow) Limit() int { return s.limit }

// Window returns the configured lookback duration.
func (s *SlidingWindow) Window() time.Duration { return s.window }

// CheckAndRecord never fails; the error is always nil.
func (s *SlidingWindow) CheckAndRecord(_ context.Context, key string, now time.Time) (Decision, error) {
	nowMs := now.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.prune(s.log[key], nowMs)
	if len(live) >= s.limit {
		s.log[key] = live
		d := Decision{Allowed: false, Count: len(live), Limit: s.limit}
		if len(live) > 0 {
			d.RetryAfter = retryAfterSeconds(live[0], s.window.Milliseconds(), nowMs)
		}
		return d, nil
	}

	live = append(live, nowMs)
	s.log[key] = live
	return Decision{Allowed: true, Count: len(live), Limit: s.limit}, nil
}

// Peek never fails and never mutates stored state.
func (s *SlidingWindow) Peek(_ context.Context, key string, now time.Time) (Usage, error) {
	nowMs := now.UnixMilli()
	windowMs := s.window.Milliseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, t := range s.log[key] {
		if nowMs-t < windowMs {
			count++
		}
	}
	return Usage{Count: count, Limit: s.limit}, nil
}

// Sweep drops every key with no timestamps left in the window and
// returns how many were removed.
func (s *SlidingWindow) Sweep(now time.Time) int {
	nowMs := now.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, ts := range s.log {
		live := s.prune(ts, nowMs)
		if len(live) == 0 {
			delete(s.log, key)
			removed++
			continue
		}
		s.log[key] = live
	}
	return removed
}

// Keys returns the number of tracked client keys.
func (s *SlidingWindow) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.log)
}

// Run sweeps every interval until ctx is done.
func (s *SlidingWindow) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		log.WithField("interval", interval).Warn("rate limit sweep disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				log.WithField("removed", n).Debug("rate limit sweep")
			}
		}
	}
}

// prune returns the timestamps still inside the window in a fresh slice.
func (s *SlidingWindow) prune(ts []int64, nowMs int64) []int64 {
	windowMs := s.window.Milliseconds()
	live := make([]int64, 0, len(ts)+1)
	for _, t := range ts {
		if nowMs-t < windowMs {
			live = append(live, t)
		}
	}
	return live
}
