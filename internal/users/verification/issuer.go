// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package verification

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/taibuivan/rentwise/internal/platform/apperr"
	"github.com/taibuivan/rentwise/internal/platform/i18n"
	"github.com/taibuivan/rentwise/internal/platform/notify"
	"github.com/taibuivan/rentwise/internal/system/securitylog"
	"github.com/taibuivan/rentwise/internal/users/identifier"
	"github.com/taibuivan/rentwise/pkg/uuid"
)

// # Contracts & Types

// Outcome is the result of a code request.
type Outcome string

const (
	OutcomeSent     Outcome = "sent"
	OutcomeCooldown Outcome = "cooldown"
	OutcomeBlocked  Outcome = "blocked"
)

// CodeRequest asks for a code to be delivered to an identifier.
type CodeRequest struct {
	Identifier string
	Kind       identifier.Kind
	Purpose    Purpose
	Language   string
	IPAddress  string
	AccountID  *string
}

// RequestResult describes what [Issuer.RequestCode] did.
type RequestResult struct {
	Outcome Outcome
	// Cooldown is the number of seconds left before a resend is allowed.
	Cooldown int
	// ResendDelay is the full cooldown a client should wait after a send.
	ResendDelay int
	ExpiresAt   time.Time
}

// Err converts a refused request into its API error. It returns nil for a send.
func (result *RequestResult) Err() error {
	switch result.Outcome {
	case OutcomeCooldown:
		return ErrResendCooldown.WithRetryAfter(result.Cooldown)
	case OutcomeBlocked:
		return ErrMaxAttempts
	}
	return nil
}

// VerifyInput is a code submitted for checking.
type VerifyInput struct {
	Identifier string
	Kind       identifier.Kind
	Purpose    Purpose
	Code       string
	IPAddress  string

	// OnVerified runs inside the lock after the code matched. An error keeps
	// the request alive so the same code can be retried.
	OnVerified func(ctx context.Context) error
}

// Dependencies groups the collaborators of an [Issuer].
type Dependencies struct {
	Repository Repository
	Sender     notify.Sender
	Catalog    *i18n.Catalog
	Marker     AccountMarker
	Audit      securitylog.Recorder
	Logger     *slog.Logger

	// Optional.
	Policy     Policy
	CodeLength int
	Generate   CodeGenerator
	Clock      func() time.Time
}

// Issuer sends and checks verification codes.
type Issuer struct {
	repository Repository
	sender     notify.Sender
	catalog    *i18n.Catalog
	marker     AccountMarker
	audit      securitylog.Recorder
	logger     *slog.Logger
	policy     Policy
	codeLength int
	generate   CodeGenerator
	now        func() time.Time
}

// NewIssuer constructs an [Issuer], filling defaults for the optional fields.
func NewIssuer(deps Dependencies) *Issuer {
	issuer := &Issuer{
		repository: deps.Repository,
		sender:     deps.Sender,
		catalog:    deps.Catalog,
		marker:     deps.Marker,
		audit:      deps.Audit,
		logger:     deps.Logger,
		policy:     deps.Policy,
		codeLength: deps.CodeLength,
		generate:   deps.Generate,
		now:        deps.Clock,
	}

	if issuer.policy == (Policy{}) {
		issuer.policy = DefaultPolicy()
	}
	if ValidateCodeLength(issuer.codeLength) != nil {
		issuer.codeLength = DefaultCodeLength
	}
	if issuer.generate == nil {
		issuer.generate = NewCode
	}
	if issuer.now == nil {
		issuer.now = time.Now
	}
	if issuer.audit == nil {
		issuer.audit = securitylog.Discard
	}
	if issuer.logger == nil {
		issuer.logger = slog.Default()
	}

	return issuer
}

// Policy returns the limits in force.
func (issuer *Issuer) Policy() Policy {
	return issuer.policy
}

// # Sending

/*
RequestCode delivers a fresh code unless the request is blocked or cooling
down.

Description: The ceiling is checked before the cooldown, so a blocked request
always reports blocked. A cooldown hit changes nothing. A send replaces the
stored code, restarts its expiry and counts as one attempt. Delivery happens
while the lock is held; if it fails nothing is recorded.

Parameters:
  - context: context.Context
  - input: CodeRequest

Returns:
  - *RequestResult: sent, cooldown or blocked
  - error: ErrUnsupportedKind, ErrDeliveryFailed or storage failures
*/
func (issuer *Issuer) RequestCode(ctx context.Context, input CodeRequest) (*RequestResult, error) {
	if !input.Kind.Verifiable() {
		return nil, ErrUnsupportedKind
	}
	if input.Purpose == "" {
		input.Purpose = PurposeVerify
	}
	key := Key{
		Identifier: identifier.Normalize(input.Kind, input.Identifier),
		Kind:       input.Kind,
		Purpose:    input.Purpose,
	}

	var result *RequestResult
	err := issuer.repository.WithLock(ctx, key, func(ctx context.Context, locked Locked) error {
		now := issuer.now()
		current := locked.Current()

		// 1. Ceiling first: a blocked request never reports a cooldown
		if issuer.policy.Blocked(current) {
			result = &RequestResult{Outcome: OutcomeBlocked}
			return nil
		}

		// 2. Cooldown: report the remaining wait and leave the row alone
		if remaining := issuer.policy.CooldownRemaining(current, now); remaining > 0 {
			result = &RequestResult{Outcome: OutcomeCooldown, Cooldown: remaining}
			return nil
		}

		// 3. Replace the code in place and count the send
		request := &Request{
			ID:         uuid.New(),
			Identifier: key.Identifier,
			Kind:       key.Kind,
			Purpose:    key.Purpose,
			CreatedAt:  now,
		}
		if current != nil {
			request.ID = current.ID
			request.CreatedAt = current.CreatedAt
			request.Attempts = current.Attempts
		}
		request.Code = issuer.generate(issuer.codeLength)
		request.ExpiresAt = now.Add(issuer.policy.CodeTTL)
		request.LastSentAt = now
		request.Attempts++
		request.Failures = 0
		request.IsVerified = false
		request.UpdatedAt = now

		if err := locked.Save(ctx, request); err != nil {
			return err
		}

		// 4. Deliver before commit; a failure rolls the send back
		if err := issuer.deliver(ctx, request, input.Language); err != nil {
			return ErrDeliveryFailed.WithCause(err)
		}

		result = &RequestResult{
			Outcome:     OutcomeSent,
			ResendDelay: issuer.policy.CooldownSeconds(),
			ExpiresAt:   request.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("verification_issuer_request_failed: %w", err)
	}

	issuer.auditRequest(ctx, key, input, result)
	return result, nil
}

// deliver renders the purpose-specific template and hands it to the sender.
func (issuer *Issuer) deliver(context context.Context, request *Request, language string) error {
	prefix := "verification"
	if request.Purpose == PurposeReset {
		prefix = "reset"
	}

	params := map[string]string{
		"code":    request.Code,
		"minutes": strconv.Itoa(int(issuer.policy.CodeTTL / time.Minute)),
	}

	message := notify.Message{
		To:       request.Identifier,
		Priority: notify.PriorityHigh,
	}
	switch request.Kind {
	case identifier.KindEmail:
		message.Channel = notify.ChannelEmail
		message.Subject = issuer.catalog.Text(language, prefix+".email.subject", nil)
		message.Body = issuer.catalog.Text(language, prefix+".email.body", params)
	case identifier.KindPhone:
		message.Channel = notify.ChannelSMS
		message.Body = issuer.catalog.Text(language, prefix+".sms.body", params)
	default:
		return fmt.Errorf("verification_issuer_unsupported_kind: %s", request.Kind)
	}

	return issuer.sender.Send(context, message)
}

func (issuer *Issuer) auditRequest(context context.Context, key Key, input CodeRequest, result *RequestResult) {
	detail := map[string]any{
		"kind":       string(key.Kind),
		"purpose":    string(key.Purpose),
		"identifier": notify.MaskRecipient(key.Identifier),
	}

	switch result.Outcome {
	case OutcomeSent:
		issuer.audit.Record(context, securitylog.Entry{
			AccountID: input.AccountID,
			Action:    securitylog.ActionVerificationSent,
			Status:    securitylog.StatusSuccess,
			Detail:    detail,
			IPAddress: input.IPAddress,
		})
	case OutcomeBlocked:
		issuer.audit.Record(context, securitylog.Entry{
			AccountID: input.AccountID,
			Action:    securitylog.ActionVerificationBlocked,
			Status:    securitylog.StatusFailed,
			Detail:    detail,
			IPAddress: input.IPAddress,
		})
	}
}

// # Verifying

/*
VerifyCode checks a submitted code and consumes the request on success.

Description: Order of checks is missing, blocked, expired, mismatch. Only a
mismatch counts as an attempt, and that increment is committed even though
the call fails. A code delivered by the send that reached the ceiling can
still be verified; the first wrong code after that blocks. On a match the account's identifier is flagged verified (for
PurposeVerify), input.OnVerified runs, and the request is deleted so the code
cannot be reused.

Parameters:
  - context: context.Context
  - input: VerifyInput

Returns:
  - error: nil when verified; ErrNotFound, ErrMaxAttempts, ErrExpiredCode,
    ErrInvalidCode, or storage failures
*/
func (issuer *Issuer) VerifyCode(ctx context.Context, input VerifyInput) error {
	if !input.Kind.Verifiable() {
		return ErrUnsupportedKind
	}
	if input.Purpose == "" {
		input.Purpose = PurposeVerify
	}
	key := Key{
		Identifier: identifier.Normalize(input.Kind, input.Identifier),
		Kind:       input.Kind,
		Purpose:    input.Purpose,
	}

	// outcome carries a client error out of a committed transaction
	var outcome error
	err := issuer.repository.WithLock(ctx, key, func(ctx context.Context, locked Locked) error {
		now := issuer.now()
		current := locked.Current()

		switch {
		case current == nil:
			outcome = ErrNotFound
			return nil
		case issuer.policy.GuessesBlocked(current):
			outcome = ErrMaxAttempts
			return nil
		case issuer.policy.Expired(current, now):
			outcome = ErrExpiredCode
			return nil
		}

		if subtle.ConstantTimeCompare([]byte(current.Code), []byte(input.Code)) != 1 {
			current.Attempts++
			current.Failures++
			current.UpdatedAt = now
			if err := locked.Save(ctx, current); err != nil {
				return err
			}
			outcome = ErrInvalidCode
			return nil
		}

		if input.Purpose == PurposeVerify && issuer.marker != nil {
			if err := issuer.marker.MarkIdentifierVerified(ctx, key.Kind, key.Identifier); err != nil {
				return fmt.Errorf("verification_issuer_mark_failed: %w", err)
			}
		}
		if input.OnVerified != nil {
			if err := input.OnVerified(ctx); err != nil {
				return err
			}
		}

		return locked.Delete(ctx)
	})
	if err != nil {
		if apperr.IsAppError(err) {
			return err
		}
		return fmt.Errorf("verification_issuer_verify_failed: %w", err)
	}

	issuer.auditVerify(ctx, key, input, outcome)
	return outcome
}

func (issuer *Issuer) auditVerify(context context.Context, key Key, input VerifyInput, outcome error) {
	entry := securitylog.Entry{
		Action:    securitylog.ActionVerificationVerified,
		Status:    securitylog.StatusSuccess,
		IPAddress: input.IPAddress,
		Detail: map[string]any{
			"kind":       string(key.Kind),
			"purpose":    string(key.Purpose),
			"identifier": notify.MaskRecipient(key.Identifier),
		},
	}

	switch {
	case outcome == nil:
	case errors.Is(outcome, ErrMaxAttempts):
		entry.Action = securitylog.ActionVerificationBlocked
		entry.Status = securitylog.StatusFailed
	case errors.Is(outcome, ErrInvalidCode), errors.Is(outcome, ErrExpiredCode):
		entry.Action = securitylog.ActionVerificationFailed
		entry.Status = securitylog.StatusFailed
		entry.Detail["reason"] = apperr.As(outcome).Code
	default:
		return
	}

	issuer.audit.Record(context, entry)
}

// # Administration

/*
Unblock deletes the request for key so the identifier can start over.

Parameters:
  - context: context.Context
  - key: Key

Returns:
  - error: ErrNotFound when nothing was stored, or storage failures
*/
func (issuer *Issuer) Unblock(context context.Context, key Key) error {
	key.Identifier = identifier.Normalize(key.Kind, key.Identifier)

	removed, err := issuer.repository.Delete(context, key)
	if err != nil {
		return fmt.Errorf("verification_issuer_unblock_failed: %w", err)
	}
	if !removed {
		return ErrNotFound
	}

	issuer.logger.InfoContext(context, "verification_unblocked",
		slog.String("kind", string(key.Kind)),
		slog.String("purpose", string(key.Purpose)),
		slog.String("identifier", notify.MaskRecipient(key.Identifier)),
	)
	return nil
}

// Status returns the stored request for key without locking it.
func (issuer *Issuer) Status(context context.Context, key Key) (*Request, error) {
	key.Identifier = identifier.Normalize(key.Kind, key.Identifier)
	return issuer.repository.Find(context, key)
}
