// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package verification_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/rentwise/internal/platform/i18n"
	"github.com/taibuivan/rentwise/internal/platform/notify"
	"github.com/taibuivan/rentwise/internal/system/securitylog"
	"github.com/taibuivan/rentwise/internal/users/identifier"
	"github.com/taibuivan/rentwise/internal/users/verification"
)

// outbox records delivered messages and can be told to fail.
type outbox struct {
	mu       sync.Mutex
	messages []notify.Message
	fail     error
}

func (o *outbox) Send(_ context.Context, message notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return o.fail
	}
	o.messages = append(o.messages, message)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}

func (o *outbox) last() notify.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.messages[len(o.messages)-1]
}

// markerFunc adapts a function to [verification.AccountMarker].
type markerFunc func(ctx context.Context, kind identifier.Kind, value string) error

func (fn markerFunc) MarkIdentifierVerified(ctx context.Context, kind identifier.Kind, value string) error {
	return fn(ctx, kind, value)
}

// auditTrail collects recorded security entries.
type auditTrail struct {
	mu      sync.Mutex
	entries []securitylog.Entry
}

func (a *auditTrail) Record(_ context.Context, entry securitylog.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *auditTrail) actions() []securitylog.Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	actions := make([]securitylog.Action, 0, len(a.entries))
	for _, entry := range a.entries {
		actions = append(actions, entry.Action)
	}
	return actions
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

type fixture struct {
	issuer     *verification.Issuer
	repository *verification.MemoryRepository
	outbox     *outbox
	audit      *auditTrail
	clock      *clock
	marked     []string
	markErr    error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog, err := i18n.Load("en")
	require.NoError(t, err)

	f := &fixture{
		repository: verification.NewMemoryRepository(),
		outbox:     &outbox{},
		audit:      &auditTrail{},
		clock:      &clock{now: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)},
	}

	codes := 0
	f.issuer = verification.NewIssuer(verification.Dependencies{
		Repository: f.repository,
		Sender:     f.outbox,
		Catalog:    catalog,
		Audit:      f.audit,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:      f.clock.Now,
		Marker: markerFunc(func(_ context.Context, kind identifier.Kind, value string) error {
			if f.markErr != nil {
				return f.markErr
			}
			f.marked = append(f.marked, string(kind)+":"+value)
			return nil
		}),
		Generate: func(length int) string {
			// Deterministic, distinct codes: 111111, 222222, ...
			codes++
			digit := byte('0' + (codes-1)%9 + 1)
			buffer := make([]byte, length)
			for i := range buffer {
				buffer[i] = digit
			}
			return string(buffer)
		},
	})
	return f
}

func (f *fixture) request(t *testing.T, raw string) *verification.RequestResult {
	t.Helper()
	result, err := f.issuer.RequestCode(context.Background(), verification.CodeRequest{
		Identifier: raw,
		Kind:       identifier.Classify(raw),
		Language:   "en",
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) verify(raw, code string) error {
	return f.issuer.VerifyCode(context.Background(), verification.VerifyInput{
		Identifier: raw,
		Kind:       identifier.Classify(raw),
		Code:       code,
	})
}

func emailKey(value string) verification.Key {
	return verification.Key{Identifier: value, Kind: identifier.KindEmail, Purpose: verification.PurposeVerify}
}

var errSMTPDown = errors.New("smtp: connection refused")

// stored reads a row straight from the repository.
func (f *fixture) stored(key verification.Key) (verification.Request, bool) {
	row, err := f.repository.Find(context.Background(), key)
	if err != nil {
		return verification.Request{}, false
	}
	return *row, true
}
