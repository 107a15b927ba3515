// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/rentwise/internal/platform/database/schema"
	"github.com/taibuivan/rentwise/internal/platform/dberr"
	"github.com/taibuivan/rentwise/internal/platform/postgres"
)

// PostgresRepository implements [Repository] on users.verification.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL-backed verification repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var (
	verificationColumns = strings.Join(schema.UserVerification.Columns(), ", ")

	selectVerificationQuery = fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND %s = $2 AND %s = $3`,
		verificationColumns, schema.UserVerification.Table,
		schema.UserVerification.Identifier, schema.UserVerification.Kind, schema.UserVerification.Purpose,
	)

	// One statement handles both the first send and every later one; the
	// unique (identifier, kind, purpose) index is the conflict target.
	upsertVerificationQuery = fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (%[3]s, %[4]s, %[5]s) DO UPDATE SET
			%[6]s = EXCLUDED.%[6]s,
			%[7]s = EXCLUDED.%[7]s,
			%[8]s = EXCLUDED.%[8]s,
			%[9]s = EXCLUDED.%[9]s,
			%[10]s = EXCLUDED.%[10]s,
			%[11]s = EXCLUDED.%[11]s,
			%[12]s = EXCLUDED.%[12]s`,
		schema.UserVerification.Table, verificationColumns,
		schema.UserVerification.Identifier, schema.UserVerification.Kind, schema.UserVerification.Purpose,
		schema.UserVerification.Code, schema.UserVerification.ExpiresAt, schema.UserVerification.LastSentAt,
		schema.UserVerification.Attempts, schema.UserVerification.IsVerified, schema.UserVerification.UpdatedAt,
		schema.UserVerification.Failures,
	)

	deleteVerificationQuery = fmt.Sprintf(`
		DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`,
		schema.UserVerification.Table,
		schema.UserVerification.Identifier, schema.UserVerification.Kind, schema.UserVerification.Purpose,
	)
)

/*
WithLock serializes every writer for key.

Description: A transaction-scoped advisory lock on the key covers the case
where no row exists yet; the existing row, if any, is additionally locked
with FOR UPDATE.

Parameters:
  - context: context.Context
  - key: Key
  - fn: Callback receiving the locked view

Returns:
  - error: fn's error or database failures
*/
func (repository *PostgresRepository) WithLock(context context.Context, key Key, fn func(context.Context, Locked) error) error {
	return postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {

		// Lock the logical key, whether or not the row exists
		lockName := fmt.Sprintf("verification:%s:%s:%s", key.Kind, key.Purpose, key.Identifier)
		if _, err := tx.Exec(context, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockName); err != nil {
			return fmt.Errorf("postgres_verification_repo_lock_failed: %w", err)
		}

		current, err := scanRequest(tx.QueryRow(context, selectVerificationQuery+" FOR UPDATE",
			key.Identifier, key.Kind, key.Purpose))
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("postgres_verification_repo_select_failed: %w", err)
		}

		return fn(context, &lockedRequest{tx: tx, key: key, current: current})
	})
}

/*
Find returns the request stored under key.

Parameters:
  - context: context.Context
  - key: Key

Returns:
  - *Request: Hydrated entity
  - error: ErrNotFound or database failures
*/
func (repository *PostgresRepository) Find(context context.Context, key Key) (*Request, error) {
	request, err := scanRequest(repository.pool.QueryRow(context, selectVerificationQuery,
		key.Identifier, key.Kind, key.Purpose))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, dberr.Wrap(err, "Verification", "postgres_verification_repo_find_failed")
	}
	return request, nil
}

/*
Delete removes the request stored under key.

Parameters:
  - context: context.Context
  - key: Key

Returns:
  - bool: Whether a row was removed
  - error: Database failures
*/
func (repository *PostgresRepository) Delete(context context.Context, key Key) (bool, error) {
	tag, err := repository.pool.Exec(context, deleteVerificationQuery, key.Identifier, key.Kind, key.Purpose)
	if err != nil {
		return false, fmt.Errorf("postgres_verification_repo_delete_failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// # Locked view

// lockedRequest writes through the enclosing transaction.
type lockedRequest struct {
	tx      pgx.Tx
	key     Key
	current *Request
}

func (locked *lockedRequest) Current() *Request {
	return locked.current
}

func (locked *lockedRequest) Save(context context.Context, request *Request) error {
	if request.Key() != locked.key {
		return fmt.Errorf("postgres_verification_repo_save_failed: key mismatch")
	}

	// An existing row keeps its id and createdat
	_, err := locked.tx.Exec(context, upsertVerificationQuery,
		request.ID,
		request.Identifier,
		request.Kind,
		request.Purpose,
		request.Code,
		request.ExpiresAt,
		request.LastSentAt,
		request.Attempts,
		request.Failures,
		request.IsVerified,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_verification_repo_save_failed: %w", err)
	}

	locked.current = request
	return nil
}

func (locked *lockedRequest) Delete(context context.Context) error {
	if _, err := locked.tx.Exec(context, deleteVerificationQuery,
		locked.key.Identifier, locked.key.Kind, locked.key.Purpose); err != nil {
		return fmt.Errorf("postgres_verification_repo_delete_failed: %w", err)
	}
	locked.current = nil
	return nil
}

// scanRequest hydrates a [Request] from a row in Columns() order.
func scanRequest(row pgx.Row) (*Request, error) {
	var request Request
	err := row.Scan(
		&request.ID,
		&request.Identifier,
		&request.Kind,
		&request.Purpose,
		&request.Code,
		&request.ExpiresAt,
		&request.LastSentAt,
		&request.Attempts,
		&request.Failures,
		&request.IsVerified,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}
