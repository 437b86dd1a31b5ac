package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result reports a limiter decision. RetryAfter is set when the request was
// denied and equals the time left in the current window.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter throttles requests per key using a fixed window. The window is
// deliberately fixed rather than sliding: it accepts a boundary burst in
// exchange for a single counter per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type windowEntry struct {
	count          int
	firstRequestAt time.Time
}

// FixedWindow is an in-memory fixed-window limiter. State is process-local:
// with multiple service instances each keeps its own counters, so deployments
// that scale horizontally should use the Redis limiter instead.
type FixedWindow struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string]*windowEntry
	now     func() time.Time
}

func NewFixedWindow(window time.Duration, max int) *FixedWindow {
	return &FixedWindow{
		window:  window,
		max:     max,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (l *FixedWindow) WithClock(now func() time.Time) *FixedWindow {
	l.now = now
	return l
}

func (l *FixedWindow) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]

	if !ok || now.Sub(entry.firstRequestAt) >= l.window {
		l.entries[key] = &windowEntry{count: 1, firstRequestAt: now}
		return Result{Allowed: true}, nil
	}

	if entry.count < l.max {
		entry.count++
		return Result{Allowed: true}, nil
	}

	return Result{
		Allowed:    false,
		RetryAfter: l.window - now.Sub(entry.firstRequestAt),
	}, nil
}

// Reset clears all counters. Used by tests.
func (l *FixedWindow) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*windowEntry)
}
