// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package effects runs best-effort side effects outside the request path.

Security log writes and "new device" notifications must never fail or slow down
a login. Handlers hand them to a [Dispatcher], which runs each task on a bounded
pool detached from the request's cancellation.

Modes:

  - Async: production. Tasks run on an errgroup limited to a fixed number of
    goroutines; when the pool is saturated the task is dropped and logged.
  - Inline: tests. Tasks run synchronously so assertions can follow the call.
*/
package effects

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Defaults for the async pool.
const (
	DefaultConcurrency = 16
	DefaultTaskTimeout = 10 * time.Second
)

// Task is a single side effect. Its error is logged, never propagated.
type Task func(ctx context.Context) error

// Dispatcher schedules [Task] values.
type Dispatcher struct {
	group   *errgroup.Group
	logger  *slog.Logger
	timeout time.Duration
	inline  bool

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates an async dispatcher running at most concurrency tasks.
func NewDispatcher(logger *slog.Logger, concurrency int, timeout time.Duration) *Dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}

	group := new(errgroup.Group)
	group.SetLimit(concurrency)

	return &Dispatcher{group: group, logger: logger, timeout: timeout}
}

// NewInline creates a dispatcher that runs every task before Go returns.
func NewInline(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{logger: logger, timeout: DefaultTaskTimeout, inline: true}
}

// Go schedules task under name. The task keeps the values of ctx (request id,
// logger) but not its deadline or cancellation.
func (dispatcher *Dispatcher) Go(ctx context.Context, name string, task Task) {
	detached := context.WithoutCancel(ctx)

	if dispatcher.inline {
		dispatcher.run(detached, name, task)
		return
	}

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()

	if dispatcher.closed {
		dispatcher.logger.Warn("effect_dropped_after_close", slog.String("effect", name))
		return
	}

	started := dispatcher.group.TryGo(func() error {
		dispatcher.run(detached, name, task)
		return nil
	})
	if !started {
		dispatcher.logger.Warn("effect_dropped_pool_saturated", slog.String("effect", name))
	}
}

// Close stops accepting tasks and waits for the running ones, or for ctx.
func (dispatcher *Dispatcher) Close(ctx context.Context) error {
	if dispatcher.inline {
		return nil
	}

	dispatcher.mu.Lock()
	dispatcher.closed = true
	dispatcher.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = dispatcher.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("effects_dispatcher_close_failed: %w", ctx.Err())
	}
}

func (dispatcher *Dispatcher) run(ctx context.Context, name string, task Task) {
	ctx, cancel := context.WithTimeout(ctx, dispatcher.timeout)
	defer cancel()

	defer func() {
		if recovered := recover(); recovered != nil {
			dispatcher.logger.Error("effect_panicked",
				slog.String("effect", name),
				slog.Any("panic", recovered),
			)
		}
	}()

	if err := task(ctx); err != nil {
		dispatcher.logger.Warn("effect_failed",
			slog.String("effect", name),
			slog.String("error", err.Error()),
		)
	}
}
