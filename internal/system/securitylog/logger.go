// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package securitylog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/rentwise/internal/platform/effects"
	"github.com/taibuivan/rentwise/pkg/uuid"
)

// Logger is the production [Recorder]. Writes run on the effects dispatcher.
type Logger struct {
	repository Repository
	dispatcher *effects.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewLogger constructs a [Logger].
func NewLogger(repository Repository, dispatcher *effects.Dispatcher, logger *slog.Logger) *Logger {
	return &Logger{
		repository: repository,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (securityLogger *Logger) WithClock(now func() time.Time) *Logger {
	securityLogger.now = now
	return securityLogger
}

// Record implements [Recorder].
func (securityLogger *Logger) Record(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = securityLogger.now()
	}

	securityLogger.dispatcher.Go(ctx, "securitylog."+string(entry.Action), func(ctx context.Context) error {
		if err := securityLogger.repository.Insert(ctx, &entry); err != nil {
			securityLogger.logger.Error("security_log_write_failed",
				slog.String("action", string(entry.Action)),
				slog.String("status", string(entry.Status)),
				slog.String("error", err.Error()),
			)
		}
		return nil
	})
}

/*
IsNewDevice reports whether no session for the same account, ip address and
device type was opened in the last 30 days.

Description: Call it before the new session is inserted, otherwise the
session being created counts as a match.

Parameters:
  - context: context.Context
  - accountID: string
  - ipAddress: string
  - deviceType: string

Returns:
  - bool: true for an unseen device
  - error: Database failures
*/
func (securityLogger *Logger) IsNewDevice(context context.Context, accountID, ipAddress, deviceType string) (bool, error) {
	since := securityLogger.now().Add(-NewDeviceWindow)

	count, err := securityLogger.repository.CountSessionsSince(context, accountID, ipAddress, deviceType, since)
	if err != nil {
		return false, fmt.Errorf("securitylog_is_new_device_failed: %w", err)
	}
	return count == 0, nil
}

// Recent returns up to limit entries of an account, newest first.
func (securityLogger *Logger) Recent(context context.Context, accountID string, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries, err := securityLogger.repository.ListByAccount(context, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("securitylog_recent_failed: %w", err)
	}
	return entries, nil
}
