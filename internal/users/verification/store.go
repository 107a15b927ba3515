// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package verification

import "context"

// # Verification Data Access

// Locked is the view of a single request held under lock for the duration of
// a [Repository.WithLock] callback.
type Locked interface {

	// Current returns the stored request, or nil if none exists yet.
	Current() *Request

	/*
		Save inserts or replaces the request for the locked key.

		Parameters:
		  - context: context.Context
		  - request: *Request (its key must match the locked key)

		Returns:
		  - error: Persistence failures
	*/
	Save(context context.Context, request *Request) error

	/*
		Delete removes the locked request. It is a no-op when none exists.

		Parameters:
		  - context: context.Context

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context) error
}

// Repository defines the data access contract for verification requests.
type Repository interface {

	/*
		WithLock runs fn while holding an exclusive lock on key.

		Description: Writes made through [Locked] are committed only when fn
		returns nil; any error rolls them back. The lock is held even when no
		request exists yet, so two first-time sends cannot both insert.

		Parameters:
		  - context: context.Context
		  - key: Key
		  - fn: func(context.Context, Locked) error

		Returns:
		  - error: fn's error, or lock/transaction failures
	*/
	WithLock(context context.Context, key Key, fn func(context context.Context, locked Locked) error) error

	/*
		Find returns the request stored under key without locking it.

		Parameters:
		  - context: context.Context
		  - key: Key

		Returns:
		  - *Request: The stored request
		  - error: ErrNotFound when absent, or database failures
	*/
	Find(context context.Context, key Key) (*Request, error)

	/*
		Delete removes the request stored under key.

		Parameters:
		  - context: context.Context
		  - key: Key

		Returns:
		  - bool: Whether a request was removed
		  - error: Database failures
	*/
	Delete(context context.Context, key Key) (bool, error)
}
