// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package securitylog keeps the append-only audit trail of authentication events.

Logins, failures, lockouts, verification sends and password changes are all
written to system.securitylog. Recording is best-effort: a failed insert is
logged through slog and never surfaces to the user whose action triggered it.

The package also answers the "is this a new device?" question used to decide
whether a login deserves an alert.
*/
package securitylog

import (
	"context"
	"time"
)

// Action names a recorded event.
type Action string

const (
	ActionLogin                Action = "login"
	ActionLoginFailed          Action = "login_failed"
	ActionAccountLocked        Action = "account_locked"
	ActionLogout               Action = "logout"
	ActionNewDeviceLogin       Action = "new_device_login"
	ActionVerificationSent     Action = "verification_sent"
	ActionVerificationVerified Action = "verification_verified"
	ActionVerificationFailed   Action = "verification_failed"
	ActionVerificationBlocked  Action = "verification_blocked"
	ActionPasswordChanged      Action = "password_changed"
	ActionPasswordReset        Action = "password_reset"
	ActionRegister             Action = "register"
	ActionSessionRevoked       Action = "session_revoked"
)

// Status is the outcome of a recorded event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// NewDeviceWindow is how far back a matching session makes a device "known".
const NewDeviceWindow = 30 * 24 * time.Hour

// Entry is a single row of the audit trail.
type Entry struct {
	ID        string         `json:"id"`
	AccountID *string        `json:"accountId,omitempty"`
	Action    Action         `json:"action"`
	Status    Status         `json:"status"`
	Detail    map[string]any `json:"detail,omitempty"`
	IPAddress string         `json:"ipAddress,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Recorder accepts audit entries. Record never fails the caller.
type Recorder interface {
	Record(context context.Context, entry Entry)
}

// RecorderFunc adapts a function to [Recorder].
type RecorderFunc func(context context.Context, entry Entry)

// Record implements [Recorder].
func (fn RecorderFunc) Record(context context.Context, entry Entry) {
	fn(context, entry)
}

// Discard is a [Recorder] that drops every entry.
var Discard Recorder = RecorderFunc(func(context.Context, Entry) {})
