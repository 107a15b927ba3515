// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package verification

import (
	"context"
	"errors"
	"sync"
)

var errKeyMismatch = errors.New("memory_verification_repo_save_failed: key mismatch")

// MemoryRepository is an in-process [Repository] for local runs and tests.
// Writes made inside WithLock are staged and applied only when fn returns nil,
// mirroring the transactional Postgres store.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[Key]Request
}

// NewMemoryRepository returns an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[Key]Request)}
}

type stagedRequest struct {
	key     Key
	current *Request
	deleted bool
}

func (staged *stagedRequest) Current() *Request { return staged.current }

func (staged *stagedRequest) Save(_ context.Context, request *Request) error {
	if request.Key() != staged.key {
		return errKeyMismatch
	}
	clone := *request
	staged.current = &clone
	staged.deleted = false
	return nil
}

func (staged *stagedRequest) Delete(context.Context) error {
	staged.current = nil
	staged.deleted = true
	return nil
}

// WithLock holds a single store-wide mutex for the duration of fn.
func (repository *MemoryRepository) WithLock(ctx context.Context, key Key, fn func(context.Context, Locked) error) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	staged := &stagedRequest{key: key}
	if row, ok := repository.rows[key]; ok {
		clone := row
		staged.current = &clone
	}

	if err := fn(ctx, staged); err != nil {
		return err
	}

	switch {
	case staged.deleted && staged.current == nil:
		delete(repository.rows, key)
	case staged.current != nil:
		repository.rows[key] = *staged.current
	}
	return nil
}

func (repository *MemoryRepository) Find(_ context.Context, key Key) (*Request, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	row, ok := repository.rows[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (repository *MemoryRepository) Delete(_ context.Context, key Key) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	_, ok := repository.rows[key]
	delete(repository.rows, key)
	return ok, nil
}
