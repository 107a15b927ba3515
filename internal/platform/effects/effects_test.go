// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package effects_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/rentwise/internal/platform/effects"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestDispatcher_InlineRunsBeforeReturn checks that inline mode is synchronous
and that a cancelled request context does not cancel the effect.
*/
func TestDispatcher_InlineRunsBeforeReturn(t *testing.T) {
	dispatcher := effects.NewInline(discardLogger())

	requestCtx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawErr error
	ran := false
	dispatcher.Go(requestCtx, "ping", func(ctx context.Context) error {
		ran = true
		sawErr = ctx.Err()
		return nil
	})

	assert.True(t, ran)
	assert.NoError(t, sawErr)
	assert.NoError(t, dispatcher.Close(context.Background()))
}

func TestDispatcher_SwallowsErrorsAndPanics(t *testing.T) {
	dispatcher := effects.NewInline(discardLogger())

	assert.NotPanics(t, func() {
		dispatcher.Go(context.Background(), "fails", func(context.Context) error {
			return errors.New("smtp down")
		})
		dispatcher.Go(context.Background(), "panics", func(context.Context) error {
			panic("boom")
		})
	})
}

/*
TestDispatcher_AsyncDrainsOnClose verifies Close waits for in-flight tasks.
*/
func TestDispatcher_AsyncDrainsOnClose(t *testing.T) {
	dispatcher := effects.NewDispatcher(discardLogger(), 4, time.Second)

	var completed atomic.Int32
	for range 4 {
		dispatcher.Go(context.Background(), "slow", func(context.Context) error {
			time.Sleep(20 * time.Millisecond)
			completed.Add(1)
			return nil
		})
	}

	require.NoError(t, dispatcher.Close(context.Background()))
	assert.Equal(t, int32(4), completed.Load())

	// Tasks submitted after Close are dropped.
	dispatcher.Go(context.Background(), "late", func(context.Context) error {
		completed.Add(1)
		return nil
	})
	assert.Equal(t, int32(4), completed.Load())
}

func TestDispatcher_DropsWhenSaturated(t *testing.T) {
	dispatcher := effects.NewDispatcher(discardLogger(), 1, time.Second)

	release := make(chan struct{})
	var ran atomic.Int32
	dispatcher.Go(context.Background(), "blocker", func(context.Context) error {
		<-release
		ran.Add(1)
		return nil
	})
	dispatcher.Go(context.Background(), "overflow", func(context.Context) error {
		ran.Add(1)
		return nil
	})

	close(release)
	require.NoError(t, dispatcher.Close(context.Background()))
	assert.Equal(t, int32(1), ran.Load())
}

func TestDispatcher_CloseHonoursDeadline(t *testing.T) {
	dispatcher := effects.NewDispatcher(discardLogger(), 1, time.Minute)

	release := make(chan struct{})
	defer close(release)
	dispatcher.Go(context.Background(), "stuck", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := dispatcher.Close(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
