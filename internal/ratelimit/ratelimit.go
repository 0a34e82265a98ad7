// Package ratelimit implements a fixed-window request counter keyed by
// (endpoint, hashed client identifier). The check and the increment are a
// single operation under one lock, so concurrent requests cannot slip past
// the limit between a check and a record step.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// Limiter counts requests in fixed windows. Windows expire lazily: the first
// check after a window elapses resets it, no timers involved.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// Status describes the current window for one (endpoint, identifier) key,
// shaped for standard rate-limit response headers.
type Status struct {
	Count     int       `json:"count"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
	Limited   bool      `json:"limited"`
}

func NewLimiter() *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow reports whether the request identified by (endpoint, identifier) may
// proceed, and counts it if so. The first request in a window always passes
// and starts the window.
func (l *Limiter) Allow(endpoint, identifier string, maxRequests int, windowLen time.Duration) bool {
	key := endpoint + ":" + identifier
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= windowLen {
		l.windows[key] = &window{count: 1, start: now}
		return true
	}
	if w.count >= maxRequests {
		return false
	}
	w.count++
	return true
}

// GetStatus returns the window state without counting a request.
func (l *Limiter) GetStatus(endpoint, identifier string, maxRequests int, windowLen time.Duration) Status {
	key := endpoint + ":" + identifier
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= windowLen {
		return Status{Count: 0, Remaining: maxRequests, ResetTime: now.Add(windowLen)}
	}
	remaining := maxRequests - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Count:     w.count,
		Remaining: remaining,
		ResetTime: w.start.Add(windowLen),
		Limited:   w.count >= maxRequests,
	}
}

// Purge drops expired windows. Optional housekeeping for long-lived
// processes; correctness does not depend on it.
func (l *Limiter) Purge(windowLen time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.Sub(w.start) >= windowLen {
			delete(l.windows, key)
		}
	}
}
