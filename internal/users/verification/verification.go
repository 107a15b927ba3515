// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package verification issues and checks the short numeric codes that prove a
user controls an email address or phone number.

Lifecycle of a request, keyed by (identifier, kind, purpose):

  - Send: a code is generated, delivered and stored with a 10 minute expiry.
    Re-sends inside the 30 second cooldown are refused without touching the
    stored code.
  - Verify: a matching, unexpired code consumes the request. A wrong code
    counts as an attempt.
  - Block: after 5 attempts (sends plus wrong codes) no further code is sent
    and no further guess is accepted, until an administrator clears the
    request. A code that was delivered can still be entered once, even when
    its send was the fifth attempt.

Every check-then-write runs under a row lock inside a single transaction, so
concurrent clicks cannot double-send or bypass the ceiling.
*/
package verification

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/taibuivan/rentwise/internal/platform/apperr"
	"github.com/taibuivan/rentwise/internal/users/identifier"
)

// # Constants

const (
	// CodeTTL is how long a delivered code stays valid.
	CodeTTL = 10 * time.Minute

	// ResendCooldown is the minimum gap between two deliveries.
	ResendCooldown = 30 * time.Second

	// MaxAttempts is the ceiling on sends plus failed verifications.
	MaxAttempts = 5

	// DefaultCodeLength is used when no length is configured.
	DefaultCodeLength = 6
)

// Purpose separates sign-up verification from password reset codes so one
// cannot be replayed as the other.
type Purpose string

const (
	PurposeVerify Purpose = "verify"
	PurposeReset  Purpose = "reset"
)

// # Errors

var (
	ErrInvalidCode = apperr.New(http.StatusBadRequest, "INVALID_CODE",
		"The verification code is incorrect")

	ErrExpiredCode = apperr.New(http.StatusBadRequest, "EXPIRED_CODE",
		"The verification code has expired. Request a new one")

	ErrNotFound = apperr.New(http.StatusNotFound, "VERIFICATION_NOT_FOUND",
		"No verification is pending for this identifier")

	ErrMaxAttempts = apperr.New(http.StatusTooManyRequests, "MAX_ATTEMPTS_EXCEEDED",
		"Too many verification attempts. Contact support to unlock")

	ErrResendCooldown = apperr.New(http.StatusTooManyRequests, "RESEND_COOLDOWN",
		"Please wait before requesting another code")

	ErrDeliveryFailed = apperr.New(http.StatusInternalServerError, "DELIVERY_FAILED",
		"The verification code could not be delivered")

	ErrUnsupportedKind = apperr.ValidationError("Only email addresses and phone numbers can be verified",
		apperr.FieldError{Field: "identifierType", Message: "must be email or phone"})
)

// # Entity

// Key addresses the single live request for an identifier.
type Key struct {
	Identifier string
	Kind       identifier.Kind
	Purpose    Purpose
}

// Request is a stored verification request.
type Request struct {
	ID         string          `json:"id"`
	Identifier string          `json:"identifier"`
	Kind       identifier.Kind `json:"kind"`
	Purpose    Purpose         `json:"purpose"`
	Code       string          `json:"-"`
	ExpiresAt  time.Time       `json:"expiresAt"`
	LastSentAt time.Time       `json:"lastSentAt"`
	Attempts   int             `json:"attempts"`
	// Failures counts wrong codes entered since the last send.
	Failures   int             `json:"failures"`
	IsVerified bool            `json:"isVerified"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Key returns the lookup key of the request.
func (request *Request) Key() Key {
	return Key{Identifier: request.Identifier, Kind: request.Kind, Purpose: request.Purpose}
}

// # Policy

// Policy holds the limits applied to a locked request. All limiting decisions
// go through it so the issuer never scatters thresholds.
type Policy struct {
	CodeTTL        time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
}

// DefaultPolicy returns the production limits.
func DefaultPolicy() Policy {
	return Policy{
		CodeTTL:        CodeTTL,
		ResendCooldown: ResendCooldown,
		MaxAttempts:    MaxAttempts,
	}
}

// Blocked reports whether the request has reached the attempt ceiling, so no
// further code may be sent.
func (policy Policy) Blocked(request *Request) bool {
	return request != nil && request.Attempts >= policy.MaxAttempts
}

// GuessesBlocked reports whether the stored code may no longer be checked.
// The send that reached the ceiling delivered a live code, so the ceiling
// only applies here once a wrong code has been entered against it.
func (policy Policy) GuessesBlocked(request *Request) bool {
	if request == nil {
		return false
	}
	return request.Attempts > policy.MaxAttempts ||
		(request.Attempts >= policy.MaxAttempts && request.Failures > 0)
}

// CooldownRemaining returns how long until another send is allowed, rounded
// up to whole seconds. Zero means a send is allowed now.
func (policy Policy) CooldownRemaining(request *Request, now time.Time) int {
	if request == nil || request.LastSentAt.IsZero() {
		return 0
	}
	remaining := request.LastSentAt.Add(policy.ResendCooldown).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}

// Expired reports whether the stored code can no longer be used.
func (policy Policy) Expired(request *Request, now time.Time) bool {
	return !now.Before(request.ExpiresAt)
}

// CooldownSeconds is the full cooldown expressed in seconds.
func (policy Policy) CooldownSeconds() int {
	return int(policy.ResendCooldown / time.Second)
}

// # Collaborators

// AccountMarker flags an account's identifier as verified. Implementations
// treat a missing account as success.
type AccountMarker interface {
	MarkIdentifierVerified(context context.Context, kind identifier.Kind, value string) error
}
