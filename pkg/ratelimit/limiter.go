// Package ratelimit implements per-client sliding-window request quotas.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Decision is the outcome of a CheckAndRecord call.
type Decision struct {
	Allowed bool
	// Count is the number of live requests in the window after the call.
	Count int
	Limit int
	// RetryAfter is the whole number of seconds until a slot frees. Zero when allowed.
	RetryAfter int
}

// Usage is a read-only snapshot of a key's consumption.
type Usage struct {
	Count int
	Limit int
}

// Limiter admits or rejects requests per client key.
type Limiter interface {
	// CheckAndRecord prunes the key's window and records now if under quota.
	CheckAndRecord(ctx context.Context, key string, now time.Time) (Decision, error)
	// Peek reports the key's live count without recording a request.
	Peek(ctx context.Context, key string, now time.Time) (Usage, error)
}

// FailureMode decides what callers do when the limiter cannot be consulted.
type FailureMode string

const (
	FailOpen   FailureMode = "open"
	FailClosed FailureMode = "closed"
)

// ParseFailureMode accepts "open" or "closed"; empty means open.
func ParseFailureMode(s string) (FailureMode, error) {
	switch FailureMode(s) {
	case "", FailOpen:
		return FailOpen, nil
	case FailClosed:
		return FailClosed, nil
	}
	return "", fmt.Errorf("unknown rate limit failure mode %q", s)
}

// retryAfterSeconds is ceil((oldest + window - now) / 1s), clamped at zero.
func retryAfterSeconds(oldestMs, windowMs, nowMs int64) int {
	remaining := oldestMs + windowMs - nowMs
	if remaining <= 0 {
		return 0
	}
	return int((remaining + 999) / 1000)
}
