// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package securitylog

import (
	"context"
	"time"
)

// Repository defines the data access contract for the audit trail.
type Repository interface {

	/*
		Insert appends an entry. Entries are never updated.

		Parameters:
		  - context: context.Context
		  - entry: *Entry

		Returns:
		  - error: Persistence failures
	*/
	Insert(context context.Context, entry *Entry) error

	/*
		ListByAccount returns the newest entries of an account first.

		Parameters:
		  - context: context.Context
		  - accountID: string
		  - limit: int

		Returns:
		  - []*Entry: Entries, newest first
		  - error: Database failures
	*/
	ListByAccount(context context.Context, accountID string, limit int) ([]*Entry, error)

	/*
		CountSessionsSince counts the sessions an account opened from the same
		ip and device type at or after since.

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
	CountSessionsSince(context context.Context, accountID, ipAddress, deviceType string, since time.Time) (int, error)
}
