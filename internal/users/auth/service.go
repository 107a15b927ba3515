// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/rentwise/internal/platform/apperr"
	"github.com/taibuivan/rentwise/internal/platform/constants"
	"github.com/taibuivan/rentwise/internal/platform/effects"
	"github.com/taibuivan/rentwise/internal/platform/i18n"
	"github.com/taibuivan/rentwise/internal/platform/notify"
	"github.com/taibuivan/rentwise/internal/platform/ratelimit"
	"github.com/taibuivan/rentwise/internal/platform/sec"
	"github.com/taibuivan/rentwise/internal/system/securitylog"
	"github.com/taibuivan/rentwise/internal/users/identifier"
	"github.com/taibuivan/rentwise/internal/users/verification"
	"github.com/taibuivan/rentwise/pkg/pointer"
	"github.com/taibuivan/rentwise/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for generating and checking session tokens.
type TokenProvider interface {
	// GenerateSessionToken creates a signed token for the given account.
	//
	// # Parameters
	//   - userID: The ID of the account.
	//   - role: The role of the account.
	//   - identifierType: The kind of identifier used to sign in.
	//   - timeToLive: The duration before the token expires.
	GenerateSessionToken(userID, role, identifierType string, timeToLive time.Duration) (string, error)

	// ParseToken checks signature, issuer and expiry.
	ParseToken(token string) (*sec.AuthClaims, error)
}

// CodeIssuer sends and checks one-time codes.
type CodeIssuer interface {
	RequestCode(context context.Context, input verification.CodeRequest) (*verification.RequestResult, error)
	VerifyCode(context context.Context, input verification.VerifyInput) error
}

// SecurityLog is the audit trail as seen by the session issuer.
type SecurityLog interface {
	securitylog.Recorder
	IsNewDevice(context context.Context, accountID, ipAddress, deviceType string) (bool, error)
}

// Dependencies groups the collaborators of a [Service].
type Dependencies struct {
	Accounts    AccountRepository
	Sessions    SessionRepository
	Tickets     RegistrationTicketRepository
	Tokens      TokenProvider
	Codes       CodeIssuer
	Failures    ratelimit.Window
	SecurityLog SecurityLog
	Sender      notify.Sender
	Catalog     *i18n.Catalog
	Effects     *effects.Dispatcher
	Logger      *slog.Logger

	// Optional.
	Clock func() time.Time
}

// Service implements the sign-in use cases: login, logout, registration and
// password management.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, lockout or
// session issuance must be reviewed by the security team.
type Service struct {
	accountRepository AccountRepository
	sessionRepository SessionRepository
	ticketRepository  RegistrationTicketRepository
	tokenProvider     TokenProvider
	codeIssuer        CodeIssuer
	failureWindow     ratelimit.Window
	fallbackWindow    *ratelimit.MemoryWindow
	securityLog       SecurityLog
	sender            notify.Sender
	catalog           *i18n.Catalog
	effects           *effects.Dispatcher
	logger            *slog.Logger
	now               func() time.Time
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(deps Dependencies) *Service {
	service := &Service{
		accountRepository: deps.Accounts,
		sessionRepository: deps.Sessions,
		ticketRepository:  deps.Tickets,
		tokenProvider:     deps.Tokens,
		codeIssuer:        deps.Codes,
		failureWindow:     deps.Failures,
		securityLog:       deps.SecurityLog,
		sender:            deps.Sender,
		catalog:           deps.Catalog,
		effects:           deps.Effects,
		logger:            deps.Logger,
		now:               deps.Clock,
	}

	if service.now == nil {
		service.now = time.Now
	}
	// Counts failures in-process while the shared window is unreachable
	service.fallbackWindow = ratelimit.NewMemoryWindow().WithClock(service.now)
	if service.logger == nil {
		service.logger = slog.Default()
	}
	if service.effects == nil {
		service.effects = effects.NewInline(service.logger)
	}

	return service
}

// # Authentication Flow

// LoginInput defines credentials and device details for a sign-in attempt.
type LoginInput struct {
	Identifier string // Email, phone or username
	Password   string
	DeviceName string
	DeviceType string
	UserAgent  string
	IPAddress  string
	Language   string
}

// LoginSession is a durably persisted session, ready to hand to the client.
type LoginSession struct {
	Token     string
	Session   *Session
	Account   *Account
	NewDevice bool
}

/*
Login checks credentials and issues a session bound to the caller's device.

Description: Checks run in a fixed order: the account exists, is active, is
not locked, the identifier kind used is verified, then the password. An
unknown identifier and a wrong password return the very same error, and both
pay for a bcrypt comparison. On success any earlier active session from the
same ip address and device type is replaced, and the new row is read back
before the token is returned.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Token, persisted session and account
  - error: ErrInvalidCredentials, ErrAccountDisabled, ErrAccountLocked,
    ErrIdentifierNotVerified, ErrSessionNotPersisted or storage failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginSession, error) {
	kind, value := identifier.Parse(input.Identifier)
	now := service.now()
	logger := service.logger.With(
		slog.String("identifier_type", string(kind)),
		slog.String("identifier", notify.MaskRecipient(value)),
		slog.String("ip", input.IPAddress),
	)

	// ── 1. Account Lookup ─────────────────────────────────────────────────
	account, err := service.accountRepository.FindByIdentifier(ctx, kind, value)
	if err != nil {
		if !apperr.IsNotFound(err) {
			return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
		}
		sec.BurnPasswordCheck(input.Password)
		service.securityLog.Record(ctx, securitylog.Entry{
			Action:    securitylog.ActionLoginFailed,
			Status:    securitylog.StatusFailed,
			Detail:    map[string]any{"reason": "unknown_identifier", "identifierType": string(kind)},
			IPAddress: input.IPAddress,
		})
		logger.Info("login_rejected", slog.String("state", string(FlowCredentialsChecked)))
		return nil, ErrInvalidCredentials
	}

	// ── 2. Account State ──────────────────────────────────────────────────
	if !account.IsActive {
		return nil, ErrAccountDisabled
	}
	if account.IsLocked(now) {
		logger.Info("login_rejected", slog.String("state", string(FlowAccountLocked)))
		return nil, ErrAccountLocked
	}
	if !account.IsVerifiedFor(kind) {
		return nil, ErrIdentifierNotVerified
	}

	// ── 3. Password ───────────────────────────────────────────────────────
	if !sec.CheckPasswordHash(input.Password, account.PasswordHash) {
		service.recordFailedLogin(ctx, account, input, logger)
		return nil, ErrInvalidCredentials
	}

	service.resetFailedLogins(ctx, account.ID, logger)

	// ── 4. Session Issuance ───────────────────────────────────────────────
	newDevice, err := service.securityLog.IsNewDevice(ctx, account.ID, input.IPAddress, input.DeviceType)
	if err != nil {
		logger.Warn("new_device_check_failed", slog.Any("error", err))
		newDevice = false
	}

	session, token, err := service.issueSession(ctx, account, kind, input, now)
	if err != nil {
		return nil, err
	}

	// ── 5. Side Effects ───────────────────────────────────────────────────
	if err := service.accountRepository.TouchLastLogin(ctx, account.ID, now); err != nil {
		logger.Warn("touch_last_login_failed", slog.Any("error", err))
	}
	account.LastLoginAt = &now

	service.securityLog.Record(ctx, securitylog.Entry{
		AccountID: &account.ID,
		Action:    securitylog.ActionLogin,
		Status:    securitylog.StatusSuccess,
		Detail: map[string]any{
			"sessionId":      session.ID,
			"deviceType":     session.DeviceType,
			"identifierType": string(kind),
			"replaced":       session.replaced,
		},
		IPAddress: input.IPAddress,
	})

	if newDevice {
		service.securityLog.Record(ctx, securitylog.Entry{
			AccountID: &account.ID,
			Action:    securitylog.ActionNewDeviceLogin,
			Status:    securitylog.StatusSuccess,
			Detail:    map[string]any{"deviceName": session.DeviceName, "deviceType": session.DeviceType},
			IPAddress: input.IPAddress,
		})
		service.notifyNewDevice(ctx, account, &session.Session, input.Language)
	}

	logger.Info("login_succeeded",
		slog.String("state", string(FlowSessionIssued)),
		slog.String("user_id", account.ID),
		slog.Bool("new_device", newDevice),
	)

	return &LoginSession{
		Token:     token,
		Session:   &session.Session,
		Account:   account,
		NewDevice: newDevice,
	}, nil
}

// issuedSession carries the replaced-row count alongside the session.
type issuedSession struct {
	Session
	replaced int64
}

// issueSession signs a token, swaps the device's session and reads it back.
func (service *Service) issueSession(context context.Context, account *Account, kind identifier.Kind, input LoginInput, now time.Time) (*issuedSession, string, error) {
	token, err := service.tokenProvider.GenerateSessionToken(account.ID, string(account.Role), string(kind), SessionTTL)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	deviceType := strings.TrimSpace(input.DeviceType)
	if deviceType == "" {
		deviceType = "web"
	}

	session := &issuedSession{Session: Session{
		ID:         uuid.New(),
		UserID:     account.ID,
		Token:      token,
		DeviceName: strings.TrimSpace(input.DeviceName),
		DeviceType: deviceType,
		UserAgent:  input.UserAgent,
		IPAddress:  input.IPAddress,
		IsActive:   true,
		CreatedAt:  now,
		ExpiresAt:  now.Add(SessionTTL),
	}}

	replaced, err := service.sessionRepository.ReplaceForDevice(context, &session.Session)
	if err != nil {
		return nil, "", ErrSessionNotPersisted.WithCause(err)
	}
	session.replaced = replaced

	// The token is only handed out once the row is confirmed durable
	stored, err := service.sessionRepository.FindByToken(context, token)
	if err != nil || !stored.IsActive || stored.ID != session.ID {
		if err == nil {
			err = errors.New("session read-back mismatch")
		}
		return nil, "", ErrSessionNotPersisted.WithCause(err)
	}

	return session, token, nil
}

// recordFailedLogin counts a wrong password and locks the account once the
// window fills up.
func (service *Service) recordFailedLogin(context context.Context, account *Account, input LoginInput, logger *slog.Logger) {
	failureKey := constants.RedisPrefixLoginFailures + account.ID

	result, err := service.failureWindow.Hit(context, failureKey, MaxFailedLogins, FailedLoginWindow)
	if err != nil {
		// Lockout must not fail open: count against this process instead
		logger.Error("login_failures_hit_failed", slog.Any("error", err))
		result, _ = service.fallbackWindow.Hit(context, failureKey, MaxFailedLogins, FailedLoginWindow)
	}

	service.securityLog.Record(context, securitylog.Entry{
		AccountID: &account.ID,
		Action:    securitylog.ActionLoginFailed,
		Status:    securitylog.StatusFailed,
		Detail:    map[string]any{"reason": "wrong_password", "failures": result.Count},
		IPAddress: input.IPAddress,
	})

	if result.Count < MaxFailedLogins {
		return
	}

	until := service.now().Add(LockoutDuration)
	if err := service.accountRepository.Lock(context, account.ID, until); err != nil {
		logger.Error("account_lock_failed", slog.Any("error", err))
		return
	}
	service.resetFailedLogins(context, account.ID, logger)

	service.securityLog.Record(context, securitylog.Entry{
		AccountID: &account.ID,
		Action:    securitylog.ActionAccountLocked,
		Status:    securitylog.StatusFailed,
		Detail:    map[string]any{"lockedUntil": until.UTC().Format(time.RFC3339), "failures": result.Count},
		IPAddress: input.IPAddress,
	})
	logger.Warn("account_locked", slog.String("user_id", account.ID), slog.Time("until", until))
}

// resetFailedLogins clears both failure windows of an account.
func (service *Service) resetFailedLogins(context context.Context, accountID string, logger *slog.Logger) {
	failureKey := constants.RedisPrefixLoginFailures + accountID
	if err := service.failureWindow.Reset(context, failureKey); err != nil {
		logger.Warn("login_failures_reset_failed", slog.Any("error", err))
	}
	_ = service.fallbackWindow.Reset(context, failureKey)
}

// notifyNewDevice alerts the account owner out of band.
func (service *Service) notifyNewDevice(ctx context.Context, account *Account, session *Session, language string) {
	if service.sender == nil || service.catalog == nil {
		return
	}

	device := session.DeviceName
	if device == "" {
		device = session.DeviceType
	}
	params := map[string]string{
		"name":   account.DisplayName(),
		"device": device,
		"ip":     session.IPAddress,
		"time":   session.CreatedAt.UTC().Format("2006-01-02 15:04 MST"),
	}

	var message notify.Message
	switch {
	case account.Email != nil && account.EmailVerified:
		message = notify.Message{
			Channel: notify.ChannelEmail,
			To:      *account.Email,
			Subject: service.catalog.Text(language, "newdevice.email.subject", params),
			Body:    service.catalog.Text(language, "newdevice.email.body", params),
		}
	case account.Phone != nil && account.PhoneVerified:
		message = notify.Message{
			Channel: notify.ChannelSMS,
			To:      *account.Phone,
			Body:    service.catalog.Text(language, "newdevice.sms.body", params),
		}
	default:
		return
	}

	service.effects.Go(ctx, "auth.new_device_notification", func(ctx context.Context) error {
		return service.sender.Send(ctx, message)
	})
}

/*
Logout deactivates the session that holds token.

Description: Idempotent. Logging out twice, or with a token whose session is
already gone, succeeds.

Parameters:
  - context: context.Context
  - token: string
  - ipAddress: string

Returns:
  - error: Storage failures
*/
func (service *Service) Logout(context context.Context, token, ipAddress string) error {
	session, err := service.sessionRepository.FindByToken(context, token)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("auth_service_logout_lookup_failed: %w", err)
	}

	changed, err := service.sessionRepository.Deactivate(context, token)
	if err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	if changed {
		service.securityLog.Record(context, securitylog.Entry{
			AccountID: &session.UserID,
			Action:    securitylog.ActionLogout,
			Status:    securitylog.StatusSuccess,
			Detail:    map[string]any{"sessionId": session.ID},
			IPAddress: ipAddress,
		})
	}

	return nil
}

/*
VerifyToken checks a session token for the middleware.

Description: A valid signature is not enough; the session row must still be
active and unexpired, so logout and revocation take effect immediately.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *sec.AuthClaims: Claims of the token
  - error: ErrSessionExpired or parse failures
*/
func (service *Service) VerifyToken(context context.Context, token string) (*sec.AuthClaims, error) {
	claims, err := service.tokenProvider.ParseToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token").WithCause(err)
	}

	session, err := service.sessionRepository.FindByToken(context, token)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("auth_service_verify_token_failed: %w", err)
	}

	if !session.IsActive || !session.ExpiresAt.After(service.now()) || session.UserID != claims.UserID {
		return nil, ErrSessionExpired
	}

	return claims, nil
}

/*
Me returns the account behind an authenticated request.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *Account: Current account
  - error: apperr.NotFound or storage failures
*/
func (service *Service) Me(context context.Context, userID string) (*Account, error) {
	return service.accountRepository.FindByID(context, userID)
}

// # Registration Flow

/*
IssueRegistrationTicket mints a single-use ticket proving value was verified.

Parameters:
  - context: context.Context
  - kind: identifier.Kind
  - value: string (normalized)

Returns:
  - string: Ticket token
  - error: Generation or storage failures
*/
func (service *Service) IssueRegistrationTicket(context context.Context, kind identifier.Kind, value string) (string, error) {
	token, err := sec.GenerateSecureToken(RegistrationTicketLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_ticket_failed: %w", err)
	}

	ticket := RegistrationTicket{Identifier: value, Kind: kind}
	if err := service.ticketRepository.Issue(context, token, ticket, RegistrationTicketTTL); err != nil {
		return "", fmt.Errorf("auth_service_issue_ticket_failed: %w", err)
	}

	return token, nil
}

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	RegistrationToken string
	Password          string
	FullName          string
	Username          string
	Role              sec.UserRole
	IPAddress         string
}

/*
Register creates an account for an identifier verified moments ago.

Description: The registration ticket is consumed first, so it cannot be
replayed even when creation fails. The verified identifier is stored with its
verified flag already set. Self-service sign-up cannot choose the admin role.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Account: Created entity
  - error: ErrInvalidRegistrationTicket, Conflict or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Account, error) {
	role := input.Role
	if role == "" {
		role = sec.RoleTenant
	}
	if role != sec.RoleTenant && role != sec.RoleLandlord {
		return nil, apperr.ValidationError("Invalid role", apperr.FieldError{Field: FieldRole, Message: "must be tenant or landlord"})
	}

	var username *string
	if raw := strings.TrimSpace(input.Username); raw != "" {
		kind, value := identifier.Parse(raw)
		if kind != identifier.KindUsername {
			return nil, apperr.ValidationError("Invalid username", apperr.FieldError{Field: FieldUsername, Message: "must not look like an email or phone number"})
		}
		username = &value
	}

	ticket, err := service.ticketRepository.Consume(context, input.RegistrationToken)
	if err != nil {
		return nil, err
	}

	// Prevent storing plain-text passwords.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	now := service.now()
	account := &Account{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hashedPassword,
		FullName:     strings.TrimSpace(input.FullName),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch ticket.Kind {
	case identifier.KindEmail:
		account.Email = pointer.To(ticket.Identifier)
		account.EmailVerified = true
	case identifier.KindPhone:
		account.Phone = pointer.To(ticket.Identifier)
		account.PhoneVerified = true
	default:
		return nil, ErrInvalidRegistrationTicket
	}

	if err := service.accountRepository.Create(context, account); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.securityLog.Record(context, securitylog.Entry{
		AccountID: &account.ID,
		Action:    securitylog.ActionRegister,
		Status:    securitylog.StatusSuccess,
		Detail:    map[string]any{"identifierType": string(ticket.Kind), "role": string(role)},
		IPAddress: input.IPAddress,
	})

	return account, nil
}

// # Password Management

/*
ChangePassword lets an authenticated user rotate their password.

Description: Verifies the current password, then signs every other device
out.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string
  - currentToken: string
  - ipAddress: string

Returns:
  - error: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword, currentToken, ipAddress string) error {
	account, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, account.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.accountRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	revoked, err := service.sessionRepository.RevokeOthers(context, userID, currentToken)
	if err != nil {
		service.logger.Warn("revoke_other_sessions_failed", slog.String("user_id", userID), slog.Any("error", err))
	}

	service.securityLog.Record(context, securitylog.Entry{
		AccountID: &userID,
		Action:    securitylog.ActionPasswordChanged,
		Status:    securitylog.StatusSuccess,
		Detail:    map[string]any{"revokedSessions": revoked},
		IPAddress: ipAddress,
	})

	return nil
}

// ForgotPasswordInput starts password recovery.
type ForgotPasswordInput struct {
	Identifier string
	Language   string
	IPAddress  string
}

/*
ForgotPassword sends a reset code to the email or phone of an account.

Description: The response never reveals whether an account exists. Unknown
identifiers, cooldowns and blocked requests all look like a send to the
caller and are only visible in the logs.

Parameters:
  - context: context.Context
  - input: ForgotPasswordInput

Returns:
  - int: Seconds the client should wait before asking again
  - error: Validation or infrastructure failures
*/
func (service *Service) ForgotPassword(context context.Context, input ForgotPasswordInput) (int, error) {
	kind, value := identifier.Parse(input.Identifier)
	if !kind.Verifiable() {
		return 0, apperr.ValidationError("Use the email address or phone number of your account")
	}

	logger := service.logger.With(slog.String("identifier", notify.MaskRecipient(value)))
	resendDelay := int(verification.ResendCooldown / time.Second)

	account, err := service.accountRepository.FindByIdentifier(context, kind, value)
	if err != nil {
		if apperr.IsNotFound(err) {
			logger.Info("password_reset_unknown_identifier")
			return resendDelay, nil
		}
		return 0, fmt.Errorf("auth_service_forgot_password_lookup_failed: %w", err)
	}

	result, err := service.codeIssuer.RequestCode(context, verification.CodeRequest{
		Identifier: value,
		Kind:       kind,
		Purpose:    verification.PurposeReset,
		Language:   input.Language,
		IPAddress:  input.IPAddress,
		AccountID:  &account.ID,
	})
	if err != nil {
		if apperr.IsAppError(err) {
			logger.Warn("password_reset_code_refused", slog.Any("error", err))
			return resendDelay, nil
		}
		return 0, fmt.Errorf("auth_service_forgot_password_failed: %w", err)
	}

	if result.Outcome != verification.OutcomeSent {
		logger.Info("password_reset_code_withheld", slog.String("outcome", string(result.Outcome)))
	}

	return resendDelay, nil
}

// ResetPasswordInput completes password recovery.
type ResetPasswordInput struct {
	Identifier  string
	Code        string
	NewPassword string
	IPAddress   string
}

/*
ResetPassword sets a new password once the reset code checks out.

Description: The password update, unlock and revocation of every session run
inside the verification lock, so a failure there leaves the code usable.

Parameters:
  - ctx: context.Context
  - input: ResetPasswordInput

Returns:
  - error: Verification errors or storage failures
*/
func (service *Service) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	kind, value := identifier.Parse(input.Identifier)
	if !kind.Verifiable() {
		return verification.ErrUnsupportedKind
	}

	account, err := service.accountRepository.FindByIdentifier(ctx, kind, value)
	if err != nil {
		if apperr.IsNotFound(err) {
			return verification.ErrNotFound
		}
		return fmt.Errorf("auth_service_reset_password_lookup_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	var revoked int64
	err = service.codeIssuer.VerifyCode(ctx, verification.VerifyInput{
		Identifier: value,
		Kind:       kind,
		Purpose:    verification.PurposeReset,
		Code:       input.Code,
		IPAddress:  input.IPAddress,
		OnVerified: func(ctx context.Context) error {
			if err := service.accountRepository.UpdatePassword(ctx, account.ID, hashedPassword); err != nil {
				return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
			}
			if err := service.accountRepository.Unlock(ctx, account.ID); err != nil {
				return fmt.Errorf("auth_service_reset_password_unlock_failed: %w", err)
			}
			count, err := service.sessionRepository.RevokeAll(ctx, account.ID)
			if err != nil {
				return fmt.Errorf("auth_service_reset_password_revoke_failed: %w", err)
			}
			revoked = count
			return nil
		},
	})
	if err != nil {
		return err
	}

	service.securityLog.Record(ctx, securitylog.Entry{
		AccountID: &account.ID,
		Action:    securitylog.ActionPasswordReset,
		Status:    securitylog.StatusSuccess,
		Detail:    map[string]any{"revokedSessions": revoked, "identifierType": string(kind)},
		IPAddress: input.IPAddress,
	})

	return nil
}
