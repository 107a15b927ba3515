// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ratelimit provides sliding-window counters keyed by an arbitrary string.

Unlike the per-IP token bucket in the middleware package, a window counts
discrete events (a failed login, a rejected code) and answers "how many in the
last N minutes?". Two implementations share the [Window] contract:

  - [RedisWindow]: sorted-set backed, shared by every API replica.
  - [MemoryWindow]: process-local, used in tests and single-node tooling.
*/
package ratelimit

import (
	"context"
	"time"
)

// Result describes the state of a window right after an event was recorded.
type Result struct {
	// Count is the number of events inside the window, including this one.
	Count int
	// Allowed is true while Count has not exceeded the limit.
	Allowed bool
	// RetryAfter is how long until the oldest event leaves the window.
	// It is zero while Allowed is true.
	RetryAfter time.Duration
}

// Window records events and reports how many fell inside a trailing window.
type Window interface {

	/*
		Hit records one event for key and returns the resulting window state.

		Parameters:
		  - context: context.Context
		  - key: string (e.g. "login:<accountID>")
		  - limit: int (events allowed inside the window)
		  - window: time.Duration

		Returns:
		  - Result: Count, Allowed and RetryAfter
		  - error: Backend failures
	*/
	Hit(context context.Context, key string, limit int, window time.Duration) (Result, error)

	/*
		Reset forgets every event recorded for key.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - error: Backend failures
	*/
	Reset(context context.Context, key string) error
}

// evaluate builds a Result from the surviving event timestamps, oldest first.
func evaluate(events []time.Time, limit int, window time.Duration, now time.Time) Result {
	result := Result{Count: len(events), Allowed: len(events) <= limit}
	if !result.Allowed && len(events) > 0 {
		result.RetryAfter = events[0].Add(window).Sub(now)
		if result.RetryAfter < 0 {
			result.RetryAfter = 0
		}
	}
	return result
}
