// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package securitylog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/rentwise/internal/platform/database/schema"
)

// PostgresRepository implements [Repository] on system.securitylog.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL-backed security log repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Insert appends an entry to system.securitylog.

Parameters:
  - context: context.Context
  - entry: *Entry

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Insert(context context.Context, entry *Entry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		schema.SystemSecurityLog.Table,
		strings.Join(schema.SystemSecurityLog.Columns(), ", "),
	)

	detail := entry.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	encoded, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("postgres_securitylog_repo_encode_failed: %w", err)
	}

	_, err = repository.pool.Exec(context, query,
		entry.ID,
		entry.AccountID,
		entry.Action,
		entry.Status,
		encoded,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_securitylog_repo_insert_failed: %w", err)
	}
	return nil
}

/*
ListByAccount returns the newest entries of an account first.

Parameters:
  - context: context.Context
  - accountID: string
  - limit: int

Returns:
  - []*Entry: Entries
  - error: Database failures
*/
func (repository *PostgresRepository) ListByAccount(context context.Context, accountID string, limit int) ([]*Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2`,
		schema.SystemSecurityLog.ID, schema.SystemSecurityLog.UserID, schema.SystemSecurityLog.Action,
		schema.SystemSecurityLog.Status, schema.SystemSecurityLog.Detail, schema.SystemSecurityLog.IPAddress,
		schema.SystemSecurityLog.CreatedAt,
		schema.SystemSecurityLog.Table,
		schema.SystemSecurityLog.UserID,
		schema.SystemSecurityLog.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres_securitylog_repo_list_failed: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Entry, error) {
		var entry Entry
		var detail []byte
		if err := row.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Action,
			&entry.Status,
			&detail,
			&entry.IPAddress,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &entry.Detail); err != nil {
				return nil, err
			}
		}
		return &entry, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres_securitylog_repo_scan_failed: %w", err)
	}

	return entries, nil
}

/*
CountSessionsSince counts sessions opened by an account from the same ip and
device type.

Parameters:
  - context: context.Context
  - accountID: string
  - ipAddress: string
  - deviceType: string
  - since: time.Time

Returns:
  - int: Matching session count
  - error: Database failures
*/
func (repository *PostgresRepository) CountSessionsSince(context context.Context, accountID, ipAddress, deviceType string, since time.Time) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE %s = $1
		  AND %s = $2
		  AND %s = $3
		  AND %s >= $4`,
		schema.UserSession.Table,
		schema.UserSession.UserID,
		schema.UserSession.IPAddress,
		schema.UserSession.DeviceType,
		schema.UserSession.CreatedAt,
	)

	var count int
	if err := repository.pool.QueryRow(context, query, accountID, ipAddress, deviceType, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_securitylog_repo_count_sessions_failed: %w", err)
	}
	return count, nil
}
