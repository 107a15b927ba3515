// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/rentwise/internal/users/identifier"
)

// # Account Data Access

// AccountRepository defines the data access contract for accounts.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		FindByIdentifier returns the account whose email, phone or username
		(picked by kind) equals the normalized value.

		Parameters:
		  - context: context.Context
		  - kind: identifier.Kind
		  - value: string (normalized)

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByIdentifier(context context.Context, kind identifier.Kind, value string) (*Account, error)

	/*
		Create persists a brand-new account.

		Parameters:
		  - context: context.Context
		  - account: *Account

		Returns:
		  - error: apperr.Conflict on a taken identifier, or persistence failures
	*/
	Create(context context.Context, account *Account) error

	/*
		UpdatePassword replaces only the password hash.

		Parameters:
		  - context: context.Context
		  - id: string
		  - passwordHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, id string, passwordHash string) error

	/*
		MarkIdentifierVerified flags the email or phone as verified on the
		account that owns it. No matching account is not an error.

		Parameters:
		  - context: context.Context
		  - kind: identifier.Kind
		  - value: string (normalized)

		Returns:
		  - error: Persistence failures
	*/
	MarkIdentifierVerified(context context.Context, kind identifier.Kind, value string) error

	/*
		TouchLastLogin stamps the last successful login.

		Parameters:
		  - context: context.Context
		  - id: string
		  - at: time.Time

		Returns:
		  - error: Persistence failures
	*/
	TouchLastLogin(context context.Context, id string, at time.Time) error

	/*
		Lock prevents logins until the given time.

		Parameters:
		  - context: context.Context
		  - id: string
		  - until: time.Time

		Returns:
		  - error: Persistence failures
	*/
	Lock(context context.Context, id string, until time.Time) error

	/*
		Unlock clears any lockout.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	Unlock(context context.Context, id string) error
}

// # Session Data Access

// SessionRepository defines the data access contract for sessions.
type SessionRepository interface {

	/*
		ReplaceForDevice atomically deactivates the account's other active
		sessions with the same ip address and device type, then inserts session.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - int64: Number of sessions deactivated
		  - error: Persistence failures (nothing is changed on error)
	*/
	ReplaceForDevice(context context.Context, session *Session) (int64, error)

	/*
		FindByToken returns the session whose token equals token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByToken(context context.Context, token string) (*Session, error)

	/*
		ListActive returns the account's active, unexpired sessions, newest first.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []*Session: Sessions
		  - error: Database failures
	*/
	ListActive(context context.Context, userID string) ([]*Session, error)

	/*
		Deactivate flags the session holding token as inactive. Deactivating an
		inactive or unknown token is a no-op.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - bool: Whether an active session was deactivated
		  - error: Persistence failures
	*/
	Deactivate(context context.Context, token string) (bool, error)

	/*
		Revoke deactivates one session of the account by ID.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - sessionID: string

		Returns:
		  - bool: Whether an active session was deactivated
		  - error: Persistence failures
	*/
	Revoke(context context.Context, userID, sessionID string) (bool, error)

	/*
		RevokeAll deactivates every active session of the account.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - int64: Number of sessions deactivated
		  - error: Persistence failures
	*/
	RevokeAll(context context.Context, userID string) (int64, error)

	/*
		RevokeOthers deactivates every active session except the one holding
		exceptToken.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - exceptToken: string

		Returns:
		  - int64: Number of sessions deactivated
		  - error: Persistence failures
	*/
	RevokeOthers(context context.Context, userID, exceptToken string) (int64, error)
}

// # Registration Tickets

// RegistrationTicket proves an identifier was verified moments ago.
type RegistrationTicket struct {
	Identifier string          `json:"identifier"`
	Kind       identifier.Kind `json:"kind"`
}

// RegistrationTicketRepository stores single-use registration tickets.
type RegistrationTicketRepository interface {

	/*
		Issue stores ticket under token with a TTL.

		Parameters:
		  - context: context.Context
		  - token: string
		  - ticket: RegistrationTicket
		  - ttl: time.Duration

		Returns:
		  - error: Storage failures
	*/
	Issue(context context.Context, token string, ticket RegistrationTicket, ttl time.Duration) error

	/*
		Consume returns and deletes the ticket in one step.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - *RegistrationTicket: The stored ticket
		  - error: ErrInvalidRegistrationTicket when absent or expired
	*/
	Consume(context context.Context, token string) (*RegistrationTicket, error)
}
