// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/rentwise/internal/platform/ratelimit"
)

// fakeClock is a manually advanced time source shared by both implementations.
type fakeClock struct {
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type windowFactory func(t *testing.T, clock *fakeClock) ratelimit.Window

func implementations() map[string]windowFactory {
	return map[string]windowFactory{
		"memory": func(_ *testing.T, clock *fakeClock) ratelimit.Window {
			return ratelimit.NewMemoryWindow().WithClock(clock.Now)
		},
		"redis": func(t *testing.T, clock *fakeClock) ratelimit.Window {
			server := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: server.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return ratelimit.NewRedisWindow(client).WithClock(clock.Now)
		},
	}
}

/*
TestWindow_LimitWithinWindow checks that the fifth failure inside 15 minutes is
still allowed and the sixth is not.
*/
func TestWindow_LimitWithinWindow(t *testing.T) {
	for name, factory := range implementations() {
		t.Run(name, func(t *testing.T) {
			clock := newClock()
			window := factory(t, clock)
			ctx := context.Background()

			var result ratelimit.Result
			var err error
			for i := 1; i <= 5; i++ {
				result, err = window.Hit(ctx, "login:acc-1", 5, 15*time.Minute)
				require.NoError(t, err)
				assert.Equal(t, i, result.Count)
				assert.True(t, result.Allowed)
				clock.Advance(time.Minute)
			}

			result, err = window.Hit(ctx, "login:acc-1", 5, 15*time.Minute)
			require.NoError(t, err)
			assert.Equal(t, 6, result.Count)
			assert.False(t, result.Allowed)
			assert.Equal(t, 10*time.Minute, result.RetryAfter)
		})
	}
}

/*
TestWindow_Slides verifies old events fall out of the window.
*/
func TestWindow_Slides(t *testing.T) {
	for name, factory := range implementations() {
		t.Run(name, func(t *testing.T) {
			clock := newClock()
			window := factory(t, clock)
			ctx := context.Background()

			for range 4 {
				_, err := window.Hit(ctx, "login:acc-2", 5, 15*time.Minute)
				require.NoError(t, err)
			}

			clock.Advance(16 * time.Minute)

			result, err := window.Hit(ctx, "login:acc-2", 5, 15*time.Minute)
			require.NoError(t, err)
			assert.Equal(t, 1, result.Count)
		})
	}
}

func TestWindow_ResetAndIsolation(t *testing.T) {
	for name, factory := range implementations() {
		t.Run(name, func(t *testing.T) {
			clock := newClock()
			window := factory(t, clock)
			ctx := context.Background()

			for range 3 {
				_, err := window.Hit(ctx, "login:acc-3", 5, time.Minute)
				require.NoError(t, err)
			}

			other, err := window.Hit(ctx, "login:acc-4", 5, time.Minute)
			require.NoError(t, err)
			assert.Equal(t, 1, other.Count)

			require.NoError(t, window.Reset(ctx, "login:acc-3"))

			result, err := window.Hit(ctx, "login:acc-3", 5, time.Minute)
			require.NoError(t, err)
			assert.Equal(t, 1, result.Count)
		})
	}
}
