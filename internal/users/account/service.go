// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/rentwise/internal/platform/apperr"
	"github.com/taibuivan/rentwise/internal/system/securitylog"
	"github.com/taibuivan/rentwise/internal/users/auth"
	"github.com/taibuivan/rentwise/pkg/slice"
)

// DefaultActivityLimit is the page size of the activity feed.
const DefaultActivityLimit = 20

// ErrSessionNotFound is returned when the session is unknown, already
// inactive or owned by someone else.
var ErrSessionNotFound = apperr.NotFound("Session")

// # Service Layer

// Service handles session self-service for authenticated users.
type Service struct {
	sessionStore SessionStore
	activityLog  ActivityLog
	logger       *slog.Logger
}

// NewService constructs a new [Service].
func NewService(sessions SessionStore, activity ActivityLog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessionStore: sessions,
		activityLog:  activity,
		logger:       logger,
	}
}

// # Session Security

/*
ListSessions returns the user's active devices, newest first.

Parameters:
  - context: context.Context
  - userID: string
  - currentToken: string (marks the caller's own session)

Returns:
  - []SessionInfo: Active devices
  - error: Retrieval failures
*/
func (service *Service) ListSessions(context context.Context, userID, currentToken string) ([]SessionInfo, error) {
	sessions, err := service.sessionStore.ListActive(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_sessions_failed: %w", err)
	}

	return slice.Map(sessions, func(session *auth.Session) SessionInfo {
		return newSessionInfo(session, currentToken)
	}), nil
}

/*
RevokeSession signs one device out.

Parameters:
  - context: context.Context
  - userID: string (owner check)
  - sessionID: string
  - ipAddress: string

Returns:
  - error: ErrSessionNotFound or revocation failures
*/
func (service *Service) RevokeSession(context context.Context, userID, sessionID, ipAddress string) error {
	revoked, err := service.sessionStore.Revoke(context, userID, sessionID)
	if err != nil {
		return fmt.Errorf("account_service_revoke_session_failed: %w", err)
	}
	if !revoked {
		return ErrSessionNotFound
	}

	service.activityLog.Record(context, securitylog.Entry{
		AccountID: &userID,
		Action:    securitylog.ActionSessionRevoked,
		Status:    securitylog.StatusSuccess,
		Detail:    map[string]any{"session_id": sessionID},
		IPAddress: ipAddress,
	})

	service.logger.Info("user_session_revoked",
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
	)
	return nil
}

/*
RevokeOtherSessions signs every device out except the caller's.

Parameters:
  - context: context.Context
  - userID: string
  - currentToken: string
  - ipAddress: string

Returns:
  - int64: Number of sessions revoked
  - error: Revocation failures
*/
func (service *Service) RevokeOtherSessions(context context.Context, userID, currentToken, ipAddress string) (int64, error) {
	revoked, err := service.sessionStore.RevokeOthers(context, userID, currentToken)
	if err != nil {
		return 0, fmt.Errorf("account_service_revoke_others_failed: %w", err)
	}

	if revoked > 0 {
		service.activityLog.Record(context, securitylog.Entry{
			AccountID: &userID,
			Action:    securitylog.ActionSessionRevoked,
			Status:    securitylog.StatusSuccess,
			Detail:    map[string]any{"scope": "others", "count": revoked},
			IPAddress: ipAddress,
		})
	}

	service.logger.Info("user_other_sessions_revoked",
		slog.String("user_id", userID),
		slog.Int64("count", revoked),
	)
	return revoked, nil
}

// # Activity

// RecentActivity returns the newest security log entries of the user.
func (service *Service) RecentActivity(context context.Context, userID string, limit int) ([]*securitylog.Entry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	entries, err := service.activityLog.Recent(context, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("account_service_recent_activity_failed: %w", err)
	}
	return entries, nil
}
