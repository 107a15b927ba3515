// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity decides what a client must do next with the identifier it
typed into the sign-in box.

An identifier is classified as an email, a phone number or a username, looked
up, and answered with one of three next steps:

  - code: a verification code was (or already is) on its way.
  - password: the identifier is verified, ask for the password. A username
    counts as verified once the account's email or phone is.
  - createAccount: no account and nothing to verify.

Confirming a code either unlocks the password step or, for a brand-new
identifier, mints the registration ticket the sign-up form needs.
*/
package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/rentwise/internal/platform/apperr"
	"github.com/taibuivan/rentwise/internal/platform/notify"
	"github.com/taibuivan/rentwise/internal/platform/sec"
	"github.com/taibuivan/rentwise/internal/users/auth"
	"github.com/taibuivan/rentwise/internal/users/identifier"
	"github.com/taibuivan/rentwise/internal/users/verification"
)

// # Contracts & Types

// NextStep tells the client which screen comes next.
type NextStep string

const (
	StepCode          NextStep = "code"
	StepPassword      NextStep = "password"
	StepCreateAccount NextStep = "createAccount"
)

// AccountFinder looks accounts up by identifier.
type AccountFinder interface {
	FindByIdentifier(context context.Context, kind identifier.Kind, value string) (*auth.Account, error)
}

// TicketIssuer mints registration tickets for verified, unclaimed identifiers.
type TicketIssuer interface {
	IssueRegistrationTicket(context context.Context, kind identifier.Kind, value string) (string, error)
}

// CodeIssuer is the slice of the verification issuer the resolver drives.
type CodeIssuer interface {
	RequestCode(context context.Context, input verification.CodeRequest) (*verification.RequestResult, error)
	VerifyCode(context context.Context, input verification.VerifyInput) error
	Unblock(context context.Context, key verification.Key) error
}

// Preview is the public part of an account shown before the password step.
type Preview struct {
	FullName string       `json:"fullName"`
	Role     sec.UserRole `json:"role"`
}

// Resolution answers a submitted identifier.
type Resolution struct {
	Exists         bool            `json:"exists"`
	IsVerified     bool            `json:"isVerified"`
	IdentifierType identifier.Kind `json:"identifierType"`
	NextStep       NextStep        `json:"nextStep"`
	User           *Preview        `json:"user,omitempty"`
	ResendDelay    int             `json:"resendDelay,omitempty"`
}

// Confirmation answers a submitted code.
type Confirmation struct {
	Verified          bool     `json:"verified"`
	NextStep          NextStep `json:"nextStep"`
	RegistrationToken string   `json:"registrationToken,omitempty"`
}

// Resolver implements the identifier step of sign-in.
type Resolver struct {
	accounts AccountFinder
	codes    CodeIssuer
	tickets  TicketIssuer
	logger   *slog.Logger
}

// NewResolver constructs a [Resolver].
func NewResolver(accounts AccountFinder, codes CodeIssuer, tickets TicketIssuer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		accounts: accounts,
		codes:    codes,
		tickets:  tickets,
		logger:   logger,
	}
}

// ResolveInput is a submitted identifier.
type ResolveInput struct {
	Identifier string
	Language   string
	IPAddress  string
}

/*
Resolve classifies and looks up an identifier, then picks the next step.

Description: An existing but unverified email or phone, and an unknown email
or phone (implicit sign-up), both get a code. A pending cooldown is not an
error here: the earlier code is still valid, so the client is sent to the
code screen with the remaining delay. A blocked identifier is refused, and so
is a username whose account has no verified email or phone, since login would
reject it.

Parameters:
  - context: context.Context
  - input: ResolveInput

Returns:
  - *Resolution: Next step and what is known about the account
  - error: ErrAccountDisabled, ErrIdentifierNotVerified, ErrMaxAttempts,
    ErrDeliveryFailed or storage failures
*/
func (resolver *Resolver) Resolve(context context.Context, input ResolveInput) (*Resolution, error) {
	kind, value := identifier.Parse(input.Identifier)
	logger := resolver.logger.With(
		slog.String("identifier_type", string(kind)),
		slog.String("identifier", notify.MaskRecipient(value)),
	)

	resolution := &Resolution{IdentifierType: kind}

	account, err := resolver.accounts.FindByIdentifier(context, kind, value)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("identity_resolver_lookup_failed: %w", err)
	}

	// ── 1. Unknown Identifier ─────────────────────────────────────────────
	if account == nil {
		if !kind.Verifiable() {
			resolution.NextStep = StepCreateAccount
			logger.Info("identifier_resolved",
				slog.String("state", string(auth.FlowIdentifierSubmitted)),
				slog.String("next_step", string(resolution.NextStep)),
			)
			return resolution, nil
		}
		return resolver.startVerification(context, resolution, value, nil, input, logger)
	}

	// ── 2. Known Identifier ───────────────────────────────────────────────
	if !account.IsActive {
		return nil, auth.ErrAccountDisabled
	}

	resolution.Exists = true
	resolution.IsVerified = account.IsVerifiedFor(kind)
	resolution.User = &Preview{FullName: account.FullName, Role: account.Role}

	if kind.Verifiable() && !resolution.IsVerified {
		return resolver.startVerification(context, resolution, value, &account.ID, input, logger)
	}
	if !resolution.IsVerified {
		logger.Info("identifier_not_verified",
			slog.String("state", string(auth.FlowIdentifierSubmitted)),
			slog.String("user_id", account.ID),
		)
		return nil, auth.ErrIdentifierNotVerified
	}

	resolution.NextStep = StepPassword
	logger.Info("identifier_resolved",
		slog.String("state", string(auth.FlowPasswordRequired)),
		slog.String("next_step", string(resolution.NextStep)),
		slog.String("user_id", account.ID),
	)
	return resolution, nil
}

// startVerification asks for a code and moves the flow to the code step.
func (resolver *Resolver) startVerification(context context.Context, resolution *Resolution, value string, accountID *string, input ResolveInput, logger *slog.Logger) (*Resolution, error) {
	result, err := resolver.codes.RequestCode(context, verification.CodeRequest{
		Identifier: value,
		Kind:       resolution.IdentifierType,
		Purpose:    verification.PurposeVerify,
		Language:   input.Language,
		IPAddress:  input.IPAddress,
		AccountID:  accountID,
	})
	if err != nil {
		return nil, err
	}

	switch result.Outcome {
	case verification.OutcomeBlocked:
		logger.Warn("identifier_blocked", slog.String("state", string(auth.FlowBlocked)))
		return nil, result.Err()
	case verification.OutcomeCooldown:
		resolution.ResendDelay = result.Cooldown
	default:
		resolution.ResendDelay = result.ResendDelay
	}

	resolution.NextStep = StepCode
	logger.Info("identifier_resolved",
		slog.String("state", string(auth.FlowVerificationPending)),
		slog.String("next_step", string(resolution.NextStep)),
		slog.String("outcome", string(result.Outcome)),
	)
	return resolution, nil
}

// ConfirmInput is a code submitted for an identifier.
type ConfirmInput struct {
	Identifier     string
	IdentifierType identifier.Kind
	Code           string
	IPAddress      string
}

/*
ConfirmCode checks a verification code and picks the step after it.

Description: When an account owns the identifier it is now verified and the
client moves on to the password. Otherwise a registration ticket is issued and
returned with nextStep createAccount.

Parameters:
  - context: context.Context
  - input: ConfirmInput

Returns:
  - *Confirmation: verified flag, next step and optional ticket
  - error: ErrInvalidCode, ErrExpiredCode, ErrNotFound, ErrMaxAttempts or storage failures
*/
func (resolver *Resolver) ConfirmCode(context context.Context, input ConfirmInput) (*Confirmation, error) {
	kind := input.IdentifierType
	if kind == "" {
		kind = identifier.Classify(input.Identifier)
	}
	value := identifier.Normalize(kind, input.Identifier)

	err := resolver.codes.VerifyCode(context, verification.VerifyInput{
		Identifier: value,
		Kind:       kind,
		Purpose:    verification.PurposeVerify,
		Code:       input.Code,
		IPAddress:  input.IPAddress,
	})
	if err != nil {
		return nil, err
	}

	confirmation := &Confirmation{Verified: true}

	account, err := resolver.accounts.FindByIdentifier(context, kind, value)
	switch {
	case err == nil && account != nil:
		confirmation.NextStep = StepPassword
	case apperr.IsNotFound(err):
		token, err := resolver.tickets.IssueRegistrationTicket(context, kind, value)
		if err != nil {
			return nil, fmt.Errorf("identity_resolver_issue_ticket_failed: %w", err)
		}
		confirmation.NextStep = StepCreateAccount
		confirmation.RegistrationToken = token
	default:
		return nil, fmt.Errorf("identity_resolver_confirm_lookup_failed: %w", err)
	}

	resolver.logger.Info("identifier_confirmed",
		slog.String("identifier_type", string(kind)),
		slog.String("identifier", notify.MaskRecipient(value)),
		slog.String("state", string(auth.FlowCodeVerified)),
		slog.String("next_step", string(confirmation.NextStep)),
	)
	return confirmation, nil
}

// ResendInput asks for another code.
type ResendInput struct {
	Identifier     string
	IdentifierType identifier.Kind
	Language       string
	IPAddress      string
}

/*
Resend delivers a fresh code, subject to the cooldown and attempt ceiling.

Parameters:
  - context: context.Context
  - input: ResendInput

Returns:
  - int: Seconds before the next resend is allowed
  - error: ErrResendCooldown (with retryAfter), ErrMaxAttempts,
    ErrUnsupportedKind, ErrDeliveryFailed or storage failures
*/
func (resolver *Resolver) Resend(context context.Context, input ResendInput) (int, error) {
	kind := input.IdentifierType
	if kind == "" {
		kind = identifier.Classify(input.Identifier)
	}
	value := identifier.Normalize(kind, input.Identifier)

	var accountID *string
	if account, err := resolver.accounts.FindByIdentifier(context, kind, value); err == nil {
		accountID = &account.ID
	}

	result, err := resolver.codes.RequestCode(context, verification.CodeRequest{
		Identifier: value,
		Kind:       kind,
		Purpose:    verification.PurposeVerify,
		Language:   input.Language,
		IPAddress:  input.IPAddress,
		AccountID:  accountID,
	})
	if err != nil {
		return 0, err
	}
	if err := result.Err(); err != nil {
		return 0, err
	}

	return result.ResendDelay, nil
}

/*
Unblock clears the verification record of an identifier so codes can be
requested again. Administrators only.

Parameters:
  - context: context.Context
  - raw: string
  - kind: identifier.Kind (empty means classify)
  - purpose: verification.Purpose (empty means verify)

Returns:
  - error: ErrNotFound or storage failures
*/
func (resolver *Resolver) Unblock(context context.Context, raw string, kind identifier.Kind, purpose verification.Purpose) error {
	if kind == "" {
		kind = identifier.Classify(raw)
	}
	if purpose == "" {
		purpose = verification.PurposeVerify
	}

	return resolver.codes.Unblock(context, verification.Key{
		Identifier: identifier.Normalize(kind, raw),
		Kind:       kind,
		Purpose:    purpose,
	})
}
