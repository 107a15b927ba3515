// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account lets a signed-in user look after their own security.

It lists the devices holding an active session, signs individual devices out
(or all devices but the current one) and shows the recent security activity
recorded against the account.

# Architecture

  - Entities: SessionInfo (DTO over auth.Session).
  - Domain: Sessions are owned by the auth package; this package only reads
    and revokes them.
  - Audit: Every revocation is recorded in the security log.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/rentwise/internal/system/securitylog"
	"github.com/taibuivan/rentwise/internal/users/auth"
)

// # Domain Entities

// SessionInfo is the transport view of an active session. The token never
// leaves the server.
type SessionInfo struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"deviceName"`
	DeviceType string    `json:"deviceType"`
	UserAgent  string    `json:"userAgent,omitempty"`
	IPAddress  string    `json:"ipAddress"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	IsCurrent  bool      `json:"isCurrent"`
}

func newSessionInfo(session *auth.Session, currentToken string) SessionInfo {
	return SessionInfo{
		ID:         session.ID,
		DeviceName: session.DeviceName,
		DeviceType: session.DeviceType,
		UserAgent:  session.UserAgent,
		IPAddress:  session.IPAddress,
		CreatedAt:  session.CreatedAt,
		ExpiresAt:  session.ExpiresAt,
		IsCurrent:  currentToken != "" && session.Token == currentToken,
	}
}

// # Contracts

// SessionStore is the part of [auth.SessionRepository] this package uses.
type SessionStore interface {
	ListActive(context context.Context, userID string) ([]*auth.Session, error)
	Revoke(context context.Context, userID, sessionID string) (bool, error)
	RevokeOthers(context context.Context, userID, exceptToken string) (int64, error)
}

// ActivityLog records revocations and reads back recent entries.
type ActivityLog interface {
	securitylog.Recorder
	Recent(context context.Context, accountID string, limit int) ([]*securitylog.Entry, error)
}
