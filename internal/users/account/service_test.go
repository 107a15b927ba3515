// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/rentwise/internal/platform/apperr"
	"github.com/taibuivan/rentwise/internal/system/securitylog"
	"github.com/taibuivan/rentwise/internal/users/account"
	"github.com/taibuivan/rentwise/internal/users/auth"
)

// # Mocks

type sessionStoreMock struct {
	mock.Mock
}

func (m *sessionStoreMock) ListActive(ctx context.Context, userID string) ([]*auth.Session, error) {
	args := m.Called(ctx, userID)
	sessions, _ := args.Get(0).([]*auth.Session)
	return sessions, args.Error(1)
}

func (m *sessionStoreMock) Revoke(ctx context.Context, userID, sessionID string) (bool, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *sessionStoreMock) RevokeOthers(ctx context.Context, userID, exceptToken string) (int64, error) {
	args := m.Called(ctx, userID, exceptToken)
	return args.Get(0).(int64), args.Error(1)
}

// activityLog keeps recorded entries in memory.
type activityLog struct {
	mu      sync.Mutex
	entries []securitylog.Entry
}

func (log *activityLog) Record(_ context.Context, entry securitylog.Entry) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.entries = append(log.entries, entry)
}

func (log *activityLog) Recent(_ context.Context, accountID string, limit int) ([]*securitylog.Entry, error) {
	log.mu.Lock()
	defer log.mu.Unlock()
	var out []*securitylog.Entry
	for i := len(log.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if entry := log.entries[i]; entry.AccountID != nil && *entry.AccountID == accountID {
			out = append(out, &entry)
		}
	}
	return out, nil
}

func newService(store *sessionStoreMock, activity *activityLog) *account.Service {
	return account.NewService(store, activity, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// # Sessions

func TestListSessions_MarksCurrent(t *testing.T) {
	store := &sessionStoreMock{}
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store.On("ListActive", mock.Anything, "acc-1").Return([]*auth.Session{
		{ID: "s-2", Token: "tok-2", DeviceName: "Pixel", DeviceType: "mobile", IPAddress: "10.0.0.2", CreatedAt: now},
		{ID: "s-1", Token: "tok-1", DeviceName: "Firefox", DeviceType: "web", IPAddress: "10.0.0.1", CreatedAt: now.Add(-time.Hour)},
	}, nil)

	sessions, err := newService(store, &activityLog{}).ListSessions(context.Background(), "acc-1", "tok-1")

	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s-2", sessions[0].ID)
	assert.False(t, sessions[0].IsCurrent)
	assert.True(t, sessions[1].IsCurrent)
	assert.Equal(t, "mobile", sessions[0].DeviceType)
}

func TestListSessions_NoTokenMarksNothing(t *testing.T) {
	store := &sessionStoreMock{}
	store.On("ListActive", mock.Anything, "acc-1").Return([]*auth.Session{{ID: "s-1"}}, nil)

	sessions, err := newService(store, &activityLog{}).ListSessions(context.Background(), "acc-1", "")

	require.NoError(t, err)
	assert.False(t, sessions[0].IsCurrent)
}

func TestListSessions_StoreFailure(t *testing.T) {
	store := &sessionStoreMock{}
	store.On("ListActive", mock.Anything, "acc-1").Return(nil, errors.New("db down"))

	_, err := newService(store, &activityLog{}).ListSessions(context.Background(), "acc-1", "")
	assert.ErrorContains(t, err, "account_service_list_sessions_failed")
}

func TestRevokeSession(t *testing.T) {
	store := &sessionStoreMock{}
	activity := &activityLog{}
	store.On("Revoke", mock.Anything, "acc-1", "s-1").Return(true, nil)
	store.On("Revoke", mock.Anything, "acc-1", "s-9").Return(false, nil)

	service := newService(store, activity)

	require.NoError(t, service.RevokeSession(context.Background(), "acc-1", "s-1", "10.0.0.1"))
	require.Len(t, activity.entries, 1)
	assert.Equal(t, securitylog.ActionSessionRevoked, activity.entries[0].Action)
	assert.Equal(t, "s-1", activity.entries[0].Detail["session_id"])
	assert.Equal(t, "10.0.0.1", activity.entries[0].IPAddress)

	err := service.RevokeSession(context.Background(), "acc-1", "s-9", "10.0.0.1")
	assert.True(t, apperr.IsNotFound(err))
	assert.Len(t, activity.entries, 1, "nothing revoked, nothing recorded")
	store.AssertExpectations(t)
}

func TestRevokeOtherSessions(t *testing.T) {
	store := &sessionStoreMock{}
	activity := &activityLog{}
	store.On("RevokeOthers", mock.Anything, "acc-1", "tok-1").Return(int64(2), nil).Once()
	store.On("RevokeOthers", mock.Anything, "acc-1", "tok-1").Return(int64(0), nil).Once()

	service := newService(store, activity)

	revoked, err := service.RevokeOtherSessions(context.Background(), "acc-1", "tok-1", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), revoked)
	require.Len(t, activity.entries, 1)
	assert.Equal(t, int64(2), activity.entries[0].Detail["count"])

	revoked, err = service.RevokeOtherSessions(context.Background(), "acc-1", "tok-1", "10.0.0.1")
	require.NoError(t, err)
	assert.Zero(t, revoked)
	assert.Len(t, activity.entries, 1)
}

// # Activity

func TestRecentActivity(t *testing.T) {
	activity := &activityLog{}
	owner, other := "acc-1", "acc-2"
	for i := 0; i < 25; i++ {
		activity.Record(context.Background(), securitylog.Entry{AccountID: &owner, Action: securitylog.ActionLogin})
	}
	activity.Record(context.Background(), securitylog.Entry{AccountID: &other, Action: securitylog.ActionLogout})

	service := newService(&sessionStoreMock{}, activity)

	entries, err := service.RecentActivity(context.Background(), owner, 0)
	require.NoError(t, err)
	assert.Len(t, entries, account.DefaultActivityLimit)

	entries, err = service.RecentActivity(context.Background(), other, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, securitylog.ActionLogout, entries[0].Action)
}
