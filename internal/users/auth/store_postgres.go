// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/rentwise/internal/platform/apperr"
	"github.com/taibuivan/rentwise/internal/platform/database/schema"
	"github.com/taibuivan/rentwise/internal/platform/dberr"
	"github.com/taibuivan/rentwise/internal/platform/postgres"
	"github.com/taibuivan/rentwise/internal/users/identifier"
)

// # Account Repository

// PostgresAccountRepository implements the AccountRepository interface using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

var (
	accountColumns = strings.Join(schema.UserAccount.Columns(), ", ")

	// Lookups skip soft-deleted rows. The remaining verb is the lookup column.
	selectAccountQuery = fmt.Sprintf(`SELECT %s FROM %s WHERE %%s = $1 AND %s IS NULL`,
		accountColumns, schema.UserAccount.Table, schema.UserAccount.DeletedAt,
	)

	insertAccountQuery = fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		schema.UserAccount.Table, accountColumns,
	)

	updatePasswordQuery = fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3
		WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table,
		schema.UserAccount.Password, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	// Filled with the verified flag and the identifier column of one kind
	markVerifiedQuery = fmt.Sprintf(`UPDATE %s SET %%s = TRUE, %s = $2 WHERE %%s = $1 AND %s IS NULL`,
		schema.UserAccount.Table, schema.UserAccount.UpdatedAt, schema.UserAccount.DeletedAt,
	)

	touchLastLoginQuery = fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.LastLoginAt, schema.UserAccount.ID,
	)

	lockAccountQuery = fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.LockedUntil, schema.UserAccount.UpdatedAt, schema.UserAccount.ID,
	)

	unlockAccountQuery = fmt.Sprintf(`UPDATE %s SET %s = NULL, %s = $2 WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.LockedUntil, schema.UserAccount.UpdatedAt, schema.UserAccount.ID,
	)
)

// identifierColumn maps a kind to its lookup column. Only fixed names are
// ever interpolated into SQL.
func identifierColumn(kind identifier.Kind) (string, error) {
	switch kind {
	case identifier.KindEmail:
		return schema.UserAccount.Email, nil
	case identifier.KindPhone:
		return schema.UserAccount.Phone, nil
	case identifier.KindUsername:
		return schema.UserAccount.Username, nil
	}
	return "", fmt.Errorf("unknown identifier kind %q", kind)
}

func scanAccount(row pgx.Row) (*Account, error) {
	account := &Account{}
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Phone,
		&account.Username,
		&account.PasswordHash,
		&account.FullName,
		&account.Role,
		&account.EmailVerified,
		&account.PhoneVerified,
		&account.IsActive,
		&account.LockedUntil,
		&account.LastLoginAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

/*
FindByID retrieves an account by its unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Account: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*Account, error) {
	query := fmt.Sprintf(selectAccountQuery, schema.UserAccount.ID)

	account, err := scanAccount(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_id_failed: %w", err)
	}

	return account, nil
}

/*
FindByIdentifier retrieves an account by email, phone or username.

Description: Lookups are case-sensitive on the stored value, so callers pass
the normalized form (lower-cased email and username, digits-only phone).

Parameters:
  - context: context.Context
  - kind: identifier.Kind
  - value: string

Returns:
  - *Account: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresAccountRepository) FindByIdentifier(context context.Context, kind identifier.Kind, value string) (*Account, error) {
	column, err := identifierColumn(kind)
	if err != nil {
		return nil, apperr.ValidationError(err.Error())
	}

	query := fmt.Sprintf(selectAccountQuery, column)

	account, err := scanAccount(repository.pool.QueryRow(context, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_identifier_failed: %w", err)
	}

	return account, nil
}

/*
Create persists a new account.

Parameters:
  - context: context.Context
  - account: *Account

Returns:
  - error: apperr.Conflict on a duplicate identifier, or connectivity errors
*/
func (repository *PostgresAccountRepository) Create(context context.Context, account *Account) error {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = account.CreatedAt

	_, err := repository.pool.Exec(context, insertAccountQuery,
		account.ID,
		account.Email,
		account.Phone,
		account.Username,
		account.PasswordHash,
		account.FullName,
		account.Role,
		account.EmailVerified,
		account.PhoneVerified,
		account.IsActive,
		account.LockedUntil,
		account.LastLoginAt,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Account", "postgres_account_repo_create_failed")
	}

	return nil
}

/*
UpdatePassword updates only the password hash for a specific account.

Parameters:
  - context: context.Context
  - id: string
  - passwordHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) UpdatePassword(context context.Context, id, passwordHash string) error {
	tag, err := repository.pool.Exec(context, updatePasswordQuery, id, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	return nil
}

/*
MarkIdentifierVerified sets emailverified or phoneverified on the owner of value.

Description: Usernames cannot be verified; the call is a no-op for them and
for identifiers no account owns yet.

Parameters:
  - context: context.Context
  - kind: identifier.Kind
  - value: string

Returns:
  - error: Database errors
*/
func (repository *PostgresAccountRepository) MarkIdentifierVerified(context context.Context, kind identifier.Kind, value string) error {
	var query string
	switch kind {
	case identifier.KindEmail:
		query = fmt.Sprintf(markVerifiedQuery, schema.UserAccount.EmailVerified, schema.UserAccount.Email)
	case identifier.KindPhone:
		query = fmt.Sprintf(markVerifiedQuery, schema.UserAccount.PhoneVerified, schema.UserAccount.Phone)
	default:
		return nil
	}

	if _, err := repository.pool.Exec(context, query, value, time.Now()); err != nil {
		return fmt.Errorf("postgres_account_repo_mark_verified_failed: %w", err)
	}
	return nil
}

/*
TouchLastLogin records the time of the last successful login.

Parameters:
  - context: context.Context
  - id: string
  - at: time.Time

Returns:
  - error: Database errors
*/
func (repository *PostgresAccountRepository) TouchLastLogin(context context.Context, id string, at time.Time) error {
	if _, err := repository.pool.Exec(context, touchLastLoginQuery, id, at); err != nil {
		return fmt.Errorf("postgres_account_repo_touch_last_login_failed: %w", err)
	}
	return nil
}

/*
Lock sets lockeduntil, refusing logins until that time.

Parameters:
  - context: context.Context
  - id: string
  - until: time.Time

Returns:
  - error: Database errors
*/
func (repository *PostgresAccountRepository) Lock(context context.Context, id string, until time.Time) error {
	if _, err := repository.pool.Exec(context, lockAccountQuery, id, until, time.Now()); err != nil {
		return fmt.Errorf("postgres_account_repo_lock_failed: %w", err)
	}
	return nil
}

/*
Unlock clears lockeduntil.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Database errors
*/
func (repository *PostgresAccountRepository) Unlock(context context.Context, id string) error {
	if _, err := repository.pool.Exec(context, unlockAccountQuery, id, time.Now()); err != nil {
		return fmt.Errorf("postgres_account_repo_unlock_failed: %w", err)
	}
	return nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

var (
	sessionColumns = strings.Join(schema.UserSession.Columns(), ", ")

	insertSessionQuery = fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		schema.UserSession.Table, sessionColumns,
	)

	deactivateDeviceQuery = fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = FALSE, %[3]s = $4
		WHERE %[4]s = $1 AND %[5]s = $2 AND %[6]s = $3 AND %[2]s = TRUE`,
		schema.UserSession.Table, schema.UserSession.IsActive, schema.UserSession.RevokedAt,
		schema.UserSession.UserID, schema.UserSession.IPAddress, schema.UserSession.DeviceType,
	)

	selectSessionByTokenQuery = fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		sessionColumns, schema.UserSession.Table, schema.UserSession.SessionToken,
	)

	listActiveSessionsQuery = fmt.Sprintf(`
		SELECT %[1]s FROM %[2]s
		WHERE %[3]s = $1 AND %[4]s = TRUE AND %[5]s > NOW()
		ORDER BY %[6]s DESC`,
		sessionColumns, schema.UserSession.Table,
		schema.UserSession.UserID, schema.UserSession.IsActive,
		schema.UserSession.ExpiresAt, schema.UserSession.CreatedAt,
	)

	deactivateTokenQuery = fmt.Sprintf(`
		UPDATE %[1]s SET %[2]s = FALSE, %[3]s = $2
		WHERE %[4]s = $1 AND %[2]s = TRUE`,
		schema.UserSession.Table, schema.UserSession.IsActive, schema.UserSession.RevokedAt,
		schema.UserSession.SessionToken,
	)

	revokeSessionQuery = fmt.Sprintf(`
		UPDATE %[1]s SET %[2]s = FALSE, %[3]s = $3
		WHERE %[4]s = $1 AND %[5]s = $2 AND %[2]s = TRUE`,
		schema.UserSession.Table, schema.UserSession.IsActive, schema.UserSession.RevokedAt,
		schema.UserSession.ID, schema.UserSession.UserID,
	)

	revokeAllSessionsQuery = fmt.Sprintf(`
		UPDATE %[1]s SET %[2]s = FALSE, %[3]s = $2
		WHERE %[4]s = $1 AND %[2]s = TRUE`,
		schema.UserSession.Table, schema.UserSession.IsActive, schema.UserSession.RevokedAt,
		schema.UserSession.UserID,
	)

	revokeOtherSessionsQuery = fmt.Sprintf(`
		UPDATE %[1]s SET %[2]s = FALSE, %[3]s = $3
		WHERE %[4]s = $1 AND %[5]s <> $2 AND %[2]s = TRUE`,
		schema.UserSession.Table, schema.UserSession.IsActive, schema.UserSession.RevokedAt,
		schema.UserSession.UserID, schema.UserSession.SessionToken,
	)
)

func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.DeviceName,
		&session.DeviceType,
		&session.UserAgent,
		&session.IPAddress,
		&session.IsActive,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.RevokedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

/*
ReplaceForDevice swaps the device's previous session for a new one.

Description: Deactivation and insert share one transaction, so a concurrent
login from the same device can never leave two active rows behind.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - int64: Sessions deactivated
  - error: Storage failures
*/
func (repository *PostgresSessionRepository) ReplaceForDevice(context context.Context, session *Session) (int64, error) {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	var replaced int64
	err := postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {

		// Serialize concurrent logins of the same account
		if _, err := tx.Exec(context, `SELECT pg_advisory_xact_lock(hashtext($1))`, "session:"+session.UserID); err != nil {
			return fmt.Errorf("postgres_session_repo_lock_failed: %w", err)
		}

		tag, err := tx.Exec(context, deactivateDeviceQuery, session.UserID, session.IPAddress, session.DeviceType, session.CreatedAt)
		if err != nil {
			return fmt.Errorf("postgres_session_repo_deactivate_failed: %w", err)
		}
		replaced = tag.RowsAffected()

		_, err = tx.Exec(context, insertSessionQuery,
			session.ID,
			session.UserID,
			session.Token,
			session.DeviceName,
			session.DeviceType,
			session.UserAgent,
			session.IPAddress,
			session.IsActive,
			session.CreatedAt,
			session.ExpiresAt,
			session.RevokedAt,
		)
		if err != nil {
			return dberr.Wrap(err, "Session", "postgres_session_repo_insert_failed")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return replaced, nil
}

/*
FindByToken retrieves a session by its token, active or not.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *Session: Hydrated session metadata
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresSessionRepository) FindByToken(context context.Context, token string) (*Session, error) {
	session, err := scanSession(repository.pool.QueryRow(context, selectSessionByTokenQuery, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_by_token_failed: %w", err)
	}

	return session, nil
}

/*
ListActive returns active, unexpired sessions of an account, newest first.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []*Session: Sessions
  - error: Database errors
*/
func (repository *PostgresSessionRepository) ListActive(context context.Context, userID string) ([]*Session, error) {
	rows, err := repository.pool.Query(context, listActiveSessionsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_active_failed: %w", err)
	}

	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Session, error) {
		return scanSession(row)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_active_scan_failed: %w", err)
	}

	return sessions, nil
}

/*
Deactivate marks the session holding token as inactive.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - bool: Whether a row changed
  - error: Database errors
*/
func (repository *PostgresSessionRepository) Deactivate(context context.Context, token string) (bool, error) {
	tag, err := repository.pool.Exec(context, deactivateTokenQuery, token, time.Now())
	if err != nil {
		return false, fmt.Errorf("postgres_session_repo_deactivate_failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

/*
Revoke marks one session of an account as inactive.

Parameters:
  - context: context.Context
  - userID: string
  - sessionID: string

Returns:
  - bool: Whether a row changed
  - error: Database errors
*/
func (repository *PostgresSessionRepository) Revoke(context context.Context, userID, sessionID string) (bool, error) {
	tag, err := repository.pool.Exec(context, revokeSessionQuery, sessionID, userID, time.Now())
	if err != nil {
		return false, fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

/*
RevokeAll marks every active session of an account as inactive.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - int64: Rows changed
  - error: Database errors
*/
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string) (int64, error) {
	tag, err := repository.pool.Exec(context, revokeAllSessionsQuery, userID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

/*
RevokeOthers marks every active session but one as inactive.

Parameters:
  - context: context.Context
  - userID: string
  - exceptToken: string

Returns:
  - int64: Rows changed
  - error: Database errors
*/
func (repository *PostgresSessionRepository) RevokeOthers(context context.Context, userID, exceptToken string) (int64, error) {
	tag, err := repository.pool.Exec(context, revokeOtherSessionsQuery, userID, exceptToken, time.Now())
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_revoke_others_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
