// Package ratelimit implements the fixed-window request quota applied to the
// bot API. Counters are best effort: the in-memory window resets on restart
// and is per instance, the redis window is shared between instances.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Defaults for the bot API quota
const (
	DefaultWindow      = time.Minute
	DefaultMaxRequests = 200
)

// Result describes the outcome of a quota check
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter is satisfied by every window implementation
type Limiter interface {
	Check(ctx context.Context, key string) (Result, error)
}

type entry struct {
	count       int
	windowStart time.Time
}

// SlidingWindow keeps one counter per key in process memory
type SlidingWindow struct {
	mu      sync.Mutex
	entries map[string]*entry
	window  time.Duration
	max     int
	now     func() time.Time
}

// NewSlidingWindow creates an in-memory limiter. Zero values fall back to
// DefaultWindow and DefaultMaxRequests.
func NewSlidingWindow(window time.Duration, max int) *SlidingWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMaxRequests
	}
	return &SlidingWindow{
		entries: make(map[string]*entry),
		window:  window,
		max:     max,
		now:     time.Now,
	}
}

// Check counts one request against key
func (s *SlidingWindow) Check(_ context.Context, key string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || now.Sub(e.windowStart) > s.window {
		s.entries[key] = &entry{count: 1, windowStart: now}
		return Result{Allowed: true, Remaining: s.max - 1, ResetAt: now.Add(s.window)}, nil
	}

	e.count++
	resetAt := e.windowStart.Add(s.window)
	if e.count > s.max {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Remaining: s.max - e.count, ResetAt: resetAt}, nil
}

// Cleanup drops keys whose window ended more than one window ago
func (s *SlidingWindow) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if now.Sub(e.windowStart) > 2*s.window {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (s *SlidingWindow) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
