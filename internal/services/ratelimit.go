package services

import (
	"sync"
	"time"
)

// SlidingLimiter bounds how many submissions one client identifier (IP) may
// make within a sliding time window. It keeps an ordered history of accepted
// timestamps per identifier and prunes entries older than the window lazily
// on each check.
//
// The check-and-record step runs under a single mutex: two concurrent
// submissions from the same identifier can never both pass a threshold they
// would jointly exceed. This is the only shared mutable state in the
// pipelines, owned by whoever constructs the service and passed in
// explicitly rather than accessed as a global.
//
// This limiter is distinct from the edge token-bucket middleware: the edge
// limiter protects all routes from request floods, while this one enforces
// the submission quota regardless of transport.
type SlidingLimiter struct {
	mu      sync.Mutex
	hits    map[string][]time.Time
	limit   int
	window  time.Duration
	nowFunc func() time.Time
}

// NewSlidingLimiter constructs a limiter allowing up to limit submissions per
// identifier inside window. A limit <= 0 disables limiting entirely.
func NewSlidingLimiter(limit int, window time.Duration) *SlidingLimiter {
	return &SlidingLimiter{
		hits:    make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		nowFunc: time.Now,
	}
}

// Allow reports whether a submission from id may proceed, recording the
// attempt timestamp when it does.
func (l *SlidingLimiter) Allow(id string) bool {
	if l.limit <= 0 {
		return true
	}

	now := l.nowFunc()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.hits[id]

	// Drop entries that have aged out of the window. History is
	// append-only ordered, so the retained suffix starts at the first
	// still-fresh entry.
	keep := 0
	for keep < len(history) && !history[keep].After(cutoff) {
		keep++
	}
	history = history[keep:]

	if len(history) >= l.limit {
		if len(history) == 0 {
			delete(l.hits, id)
		} else {
			l.hits[id] = history
		}
		return false
	}

	l.hits[id] = append(history, now)
	return true
}
