// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/rentwise/internal/platform/apperr"
	"github.com/taibuivan/rentwise/internal/platform/effects"
	"github.com/taibuivan/rentwise/internal/platform/i18n"
	"github.com/taibuivan/rentwise/internal/platform/notify"
	"github.com/taibuivan/rentwise/internal/platform/ratelimit"
	"github.com/taibuivan/rentwise/internal/platform/sec"
	"github.com/taibuivan/rentwise/internal/system/securitylog"
	"github.com/taibuivan/rentwise/internal/users/auth"
	"github.com/taibuivan/rentwise/internal/users/identifier"
	"github.com/taibuivan/rentwise/internal/users/verification"
	"github.com/taibuivan/rentwise/pkg/pointer"
)

// # Accounts

type memoryAccounts struct {
	mu   sync.Mutex
	rows map[string]auth.Account
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{rows: make(map[string]auth.Account)}
}

func (store *memoryAccounts) FindByID(_ context.Context, id string) (*auth.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	row, ok := store.rows[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	return &row, nil
}

func (store *memoryAccounts) FindByIdentifier(_ context.Context, kind identifier.Kind, value string) (*auth.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, row := range store.rows {
		if row.Identifier(kind) == value {
			return &row, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (store *memoryAccounts) Create(_ context.Context, account *auth.Account) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, row := range store.rows {
		for _, kind := range []identifier.Kind{identifier.KindEmail, identifier.KindPhone, identifier.KindUsername} {
			if value := account.Identifier(kind); value != "" && row.Identifier(kind) == value {
				return apperr.Conflict("Account already exists")
			}
		}
	}
	store.rows[account.ID] = *account
	return nil
}

func (store *memoryAccounts) update(id string, fn func(*auth.Account)) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	row, ok := store.rows[id]
	if !ok {
		return apperr.NotFound("Account")
	}
	fn(&row)
	store.rows[id] = row
	return nil
}

func (store *memoryAccounts) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return store.update(id, func(account *auth.Account) { account.PasswordHash = passwordHash })
}

func (store *memoryAccounts) MarkIdentifierVerified(_ context.Context, kind identifier.Kind, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for id, row := range store.rows {
		if row.Identifier(kind) != value {
			continue
		}
		switch kind {
		case identifier.KindEmail:
			row.EmailVerified = true
		case identifier.KindPhone:
			row.PhoneVerified = true
		}
		store.rows[id] = row
	}
	return nil
}

func (store *memoryAccounts) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return store.update(id, func(account *auth.Account) { account.LastLoginAt = &at })
}

func (store *memoryAccounts) Lock(_ context.Context, id string, until time.Time) error {
	return store.update(id, func(account *auth.Account) { account.LockedUntil = &until })
}

func (store *memoryAccounts) Unlock(_ context.Context, id string) error {
	return store.update(id, func(account *auth.Account) { account.LockedUntil = nil })
}

// # Sessions

type memorySessions struct {
	mu   sync.Mutex
	rows []auth.Session

	// dropWrites makes ReplaceForDevice report success without storing.
	dropWrites bool
	clock      func() time.Time
}

func (store *memorySessions) ReplaceForDevice(_ context.Context, session *auth.Session) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.dropWrites {
		return 0, nil
	}

	var replaced int64
	for i := range store.rows {
		row := &store.rows[i]
		if row.UserID == session.UserID && row.IPAddress == session.IPAddress && row.DeviceType == session.DeviceType && row.IsActive {
			row.IsActive = false
			row.RevokedAt = pointer.To(session.CreatedAt)
			replaced++
		}
	}
	store.rows = append(store.rows, *session)
	return replaced, nil
}

func (store *memorySessions) FindByToken(_ context.Context, token string) (*auth.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, row := range store.rows {
		if row.Token == token {
			return &row, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (store *memorySessions) ListActive(_ context.Context, userID string) ([]*auth.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var sessions []*auth.Session
	for i := len(store.rows) - 1; i >= 0; i-- {
		row := store.rows[i]
		if row.UserID == userID && row.IsActive && row.ExpiresAt.After(store.clock()) {
			sessions = append(sessions, &row)
		}
	}
	return sessions, nil
}

func (store *memorySessions) deactivate(match func(auth.Session) bool) int64 {
	store.mu.Lock()
	defer store.mu.Unlock()
	var changed int64
	for i := range store.rows {
		row := &store.rows[i]
		if row.IsActive && match(*row) {
			row.IsActive = false
			row.RevokedAt = pointer.To(store.clock())
			changed++
		}
	}
	return changed
}

func (store *memorySessions) Deactivate(_ context.Context, token string) (bool, error) {
	return store.deactivate(func(row auth.Session) bool { return row.Token == token }) > 0, nil
}

func (store *memorySessions) Revoke(_ context.Context, userID, sessionID string) (bool, error) {
	return store.deactivate(func(row auth.Session) bool { return row.UserID == userID && row.ID == sessionID }) > 0, nil
}

func (store *memorySessions) RevokeAll(_ context.Context, userID string) (int64, error) {
	return store.deactivate(func(row auth.Session) bool { return row.UserID == userID }), nil
}

func (store *memorySessions) RevokeOthers(_ context.Context, userID, exceptToken string) (int64, error) {
	return store.deactivate(func(row auth.Session) bool { return row.UserID == userID && row.Token != exceptToken }), nil
}

func (store *memorySessions) active(userID string) []auth.Session {
	store.mu.Lock()
	defer store.mu.Unlock()
	var sessions []auth.Session
	for _, row := range store.rows {
		if row.UserID == userID && row.IsActive {
			sessions = append(sessions, row)
		}
	}
	return sessions
}

// # Security Log

// auditTrail records entries and answers IsNewDevice from the session store.
type auditTrail struct {
	mu       sync.Mutex
	entries  []securitylog.Entry
	sessions *memorySessions
	clock    func() time.Time
}

func (trail *auditTrail) Record(_ context.Context, entry securitylog.Entry) {
	trail.mu.Lock()
	defer trail.mu.Unlock()
	trail.entries = append(trail.entries, entry)
}

func (trail *auditTrail) IsNewDevice(_ context.Context, accountID, ipAddress, deviceType string) (bool, error) {
	since := trail.clock().Add(-securitylog.NewDeviceWindow)
	trail.sessions.mu.Lock()
	defer trail.sessions.mu.Unlock()
	for _, row := range trail.sessions.rows {
		if row.UserID == accountID && row.IPAddress == ipAddress && row.DeviceType == deviceType && !row.CreatedAt.Before(since) {
			return false, nil
		}
	}
	return true, nil
}

func (trail *auditTrail) count(action securitylog.Action) int {
	trail.mu.Lock()
	defer trail.mu.Unlock()
	total := 0
	for _, entry := range trail.entries {
		if entry.Action == action {
			total++
		}
	}
	return total
}

// # Outbound

type outbox struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (o *outbox) Send(_ context.Context, message notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, message)
	return nil
}

func (o *outbox) subjects() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	subjects := make([]string, 0, len(o.messages))
	for _, message := range o.messages {
		subjects = append(subjects, message.Subject)
	}
	return subjects
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// # Fixture

// unreachableWindow fails every call, like a window whose Redis is down.
type unreachableWindow struct{}

func (unreachableWindow) Hit(context.Context, string, int, time.Duration) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("dial tcp: connection refused")
}

func (unreachableWindow) Reset(context.Context, string) error {
	return errors.New("dial tcp: connection refused")
}

const (
	testPassword = "correct-horse-battery"
	testCode     = "654321"
)

type fixture struct {
	service  *auth.Service
	accounts *memoryAccounts
	sessions *memorySessions
	audit    *auditTrail
	outbox   *outbox
	clock    *clock
	tokens   *sec.TokenService
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithWindow(t, nil)
}

// newFixtureWithWindow uses failures as the failed-login window; nil means an
// in-memory window on the fixture clock.
func newFixtureWithWindow(t *testing.T, failures ratelimit.Window) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog, err := i18n.Load("en")
	require.NoError(t, err)

	tokens, err := sec.NewTokenService("test-secret-that-is-long-enough-123456", "rentwise.app")
	require.NoError(t, err)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		accounts: newMemoryAccounts(),
		outbox:   &outbox{},
		clock:    &clock{now: time.Now().Truncate(time.Second)},
		tokens:   tokens,
		redis:    server,
	}
	f.sessions = &memorySessions{clock: f.clock.Now}
	f.audit = &auditTrail{sessions: f.sessions, clock: f.clock.Now}

	if failures == nil {
		failures = ratelimit.NewMemoryWindow().WithClock(f.clock.Now)
	}

	issuer := verification.NewIssuer(verification.Dependencies{
		Repository: verification.NewMemoryRepository(),
		Sender:     f.outbox,
		Catalog:    catalog,
		Marker:     f.accounts,
		Audit:      f.audit,
		Logger:     logger,
		Clock:      f.clock.Now,
		Generate:   func(int) string { return testCode },
	})

	f.service = auth.NewService(auth.Dependencies{
		Accounts:    f.accounts,
		Sessions:    f.sessions,
		Tickets:     auth.NewRegistrationTicketRepository(client),
		Tokens:      tokens,
		Codes:       issuer,
		Failures:    failures,
		SecurityLog: f.audit,
		Sender:      f.outbox,
		Catalog:     catalog,
		Effects:     effects.NewInline(logger),
		Logger:      logger,
		Clock:       f.clock.Now,
	})
	return f
}

// seed stores a verified email account with testPassword.
func (f *fixture) seed(t *testing.T, email string, mutate ...func(*auth.Account)) *auth.Account {
	t.Helper()

	hash, err := sec.HashPassword(testPassword)
	require.NoError(t, err)

	account := &auth.Account{
		ID:            "acc-" + email,
		Email:         pointer.To(email),
		PasswordHash:  hash,
		FullName:      "Bob Renter",
		Role:          sec.RoleTenant,
		EmailVerified: true,
		IsActive:      true,
		CreatedAt:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}
	for _, fn := range mutate {
		fn(account)
	}
	require.NoError(t, f.accounts.Create(context.Background(), account))
	return account
}

func (f *fixture) login(identifierValue, password, ip, deviceType string) (*auth.LoginSession, error) {
	return f.service.Login(context.Background(), auth.LoginInput{
		Identifier: identifierValue,
		Password:   password,
		DeviceName: "Bob's laptop",
		DeviceType: deviceType,
		UserAgent:  "test-agent",
		IPAddress:  ip,
		Language:   "en",
	})
}
