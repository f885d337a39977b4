// Package ratelimit implements a fixed-window request limiter keyed by
// caller identity.
package ratelimit

import (
	"sync"
	"time"

	"github.com/nwestbury/digitduel/internal/dependencies/clock"
)

type window struct {
	start time.Time
	count int
}

// Limiter allows at most Limit calls per key within each Window. Windows are
// fixed, anchored at the first call after the previous window expired.
type Limiter struct {
	limit  int
	window time.Duration
	clock  clock.Clock

	mu      sync.Mutex
	windows map[string]*window
}

// New creates a limiter allowing limit calls per key per window
func New(limit int, windowDur time.Duration, clk clock.Clock) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  windowDur,
		clock:   clk,
		windows: make(map[string]*window),
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. Attempts over the limit are not recorded, so a caller that backs
// off regains access when the window rolls over.
func (l *Limiter) Allow(key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many attempts key has left in the current window
func (l *Limiter) Remaining(key string) int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		return l.limit
	}
	if w.count >= l.limit {
		return 0
	}
	return l.limit - w.count
}

// Prune drops expired windows (call periodically if key cardinality is a
// concern)
func (l *Limiter) Prune() {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
		}
	}
}
