// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the account and session side of Rentwise sign-in.

It defines the core domain entities (Account, Session) and the rules that
turn a verified identifier and a password into a durable session.

# Architecture

  - Service: Login, Logout, Register, password change and recovery.
  - Repository: Postgres for accounts and sessions, Redis for the short-lived
    registration tickets minted after a code is verified.
  - Handler: chi routes, session cookie handling.
*/
package auth

import (
	"net/http"
	"time"

	"github.com/taibuivan/rentwise/internal/platform/apperr"
	"github.com/taibuivan/rentwise/internal/platform/sec"
	"github.com/taibuivan/rentwise/internal/users/identifier"
	"github.com/taibuivan/rentwise/pkg/pointer"
)

// # Domain Entities

// Account represents a registered Rentwise user: a tenant, a landlord or an
// administrator. At least one of Email, Phone and Username is set.
type Account struct {
	ID            string       `json:"id"`
	Email         *string      `json:"email,omitempty"`
	Phone         *string      `json:"phone,omitempty"`
	Username      *string      `json:"username,omitempty"`
	PasswordHash  string       `json:"-"` // Explicitly omitted from JSON for security.
	FullName      string       `json:"fullName"`
	Role          sec.UserRole `json:"role"`
	EmailVerified bool         `json:"emailVerified"`
	PhoneVerified bool         `json:"phoneVerified"`
	IsActive      bool         `json:"isActive"`
	LockedUntil   *time.Time   `json:"-"`
	LastLoginAt   *time.Time   `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// IsVerifiedFor reports whether the identifier of the given kind may be used
// to sign in. A username carries no proof of its own, so it rides on any
// verified contact.
func (account *Account) IsVerifiedFor(kind identifier.Kind) bool {
	switch kind {
	case identifier.KindEmail:
		return account.EmailVerified
	case identifier.KindPhone:
		return account.PhoneVerified
	default:
		return account.EmailVerified || account.PhoneVerified
	}
}

// IsLocked reports whether a lockout is in force at now.
func (account *Account) IsLocked(now time.Time) bool {
	return account.LockedUntil != nil && account.LockedUntil.After(now)
}

// Identifier returns the stored value for kind, or "" when unset.
func (account *Account) Identifier(kind identifier.Kind) string {
	switch kind {
	case identifier.KindEmail:
		return pointer.Val(account.Email)
	case identifier.KindPhone:
		return pointer.Val(account.Phone)
	default:
		return pointer.Val(account.Username)
	}
}

// DisplayName is the name used in greetings.
func (account *Account) DisplayName() string {
	switch {
	case account.FullName != "":
		return account.FullName
	case account.Username != nil:
		return *account.Username
	default:
		return "there"
	}
}

// Session is one signed-in device. Its Token is the exact string issued to
// the client, and a session never becomes active again once deactivated.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Token      string     `json:"-"`
	DeviceName string     `json:"deviceName"`
	DeviceType string     `json:"deviceType"`
	UserAgent  string     `json:"userAgent"`
	IPAddress  string     `json:"ipAddress"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
}

// # Errors

var (
	ErrInvalidCredentials = apperr.New(http.StatusUnauthorized, "INVALID_CREDENTIALS", InvalidCredentialsMessage)

	ErrAccountDisabled = apperr.New(http.StatusForbidden, "ACCOUNT_DISABLED",
		"This account has been disabled")

	ErrAccountLocked = apperr.New(http.StatusForbidden, "ACCOUNT_LOCKED",
		"Too many failed sign-in attempts. Try again later")

	ErrIdentifierNotVerified = apperr.New(http.StatusForbidden, "IDENTIFIER_NOT_VERIFIED",
		"Verify this identifier before signing in")

	ErrSessionNotPersisted = apperr.New(http.StatusInternalServerError, "SESSION_NOT_PERSISTED",
		"The session could not be saved. Please try again")

	ErrInvalidRegistrationTicket = apperr.New(http.StatusBadRequest, "INVALID_REGISTRATION_TOKEN",
		"The registration link is invalid or has expired. Verify your identifier again")

	ErrSessionExpired = apperr.Unauthorized("Session is no longer active")
)

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldIdentifier        = "identifier"
	FieldPassword          = "password"
	FieldFullName          = "fullName"
	FieldUsername          = "username"
	FieldRole              = "role"
	FieldCode              = "code"
	FieldRegistrationToken = "registrationToken"
	FieldCurrentPassword   = "currentPassword"
	FieldNewPassword       = "newPassword"
	FieldDeviceType        = "device_type"
	FieldSuccess           = "success"
	FieldUser              = "user"
	FieldSession           = "session"
	FieldRedirectURL       = "redirectUrl"
	FieldMessage           = "message"
	FieldResendDelay       = "resendDelay"
)
