// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryWindow is an in-process [Window]. It is safe for concurrent use.
type MemoryWindow struct {
	mu     sync.Mutex
	events map[string][]time.Time
	now    func() time.Time
}

// NewMemoryWindow creates an empty in-memory window.
func NewMemoryWindow() *MemoryWindow {
	return &MemoryWindow{
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (limiter *MemoryWindow) WithClock(now func() time.Time) *MemoryWindow {
	limiter.now = now
	return limiter
}

// Hit implements [Window].
func (limiter *MemoryWindow) Hit(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.now()
	cutoff := now.Add(-window)

	// Drop everything at or before the cutoff, then record this event.
	kept := limiter.events[key][:0]
	for _, at := range limiter.events[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	kept = append(kept, now)
	limiter.events[key] = kept

	return evaluate(kept, limit, window, now), nil
}

// Reset implements [Window].
func (limiter *MemoryWindow) Reset(_ context.Context, key string) error {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	delete(limiter.events, key)
	return nil
}
