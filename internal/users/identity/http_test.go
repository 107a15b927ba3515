// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/rentwise/internal/platform/constants"
	"github.com/taibuivan/rentwise/internal/platform/middleware"
	"github.com/taibuivan/rentwise/internal/platform/sec"
	"github.com/taibuivan/rentwise/internal/users/identifier"
	"github.com/taibuivan/rentwise/internal/users/identity"
	"github.com/taibuivan/rentwise/internal/users/verification"
)

// staticVerifier maps bearer tokens to roles.
type staticVerifier map[string]sec.UserRole

func (verifier staticVerifier) VerifyToken(_ context.Context, token string) (*sec.AuthClaims, error) {
	role, ok := verifier[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &sec.AuthClaims{UserID: "user-" + token, Role: string(role)}, nil
}

func newRouter(f *fixture) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(staticVerifier{"admin": sec.RoleAdmin, "tenant": sec.RoleTenant}))
	router.Route("/api/auth", identity.NewHandler(f.resolver).RegisterRoutes)
	return router
}

func call(router http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestHandler_UnverifiedAccountScenario(t *testing.T) {
	f := newFixture(t)
	f.add(bob(false))
	router := newRouter(f)

	check := call(router, http.MethodPost, "/api/auth/check-identifier", `{"identifier":"bob@x.com","language":"en"}`, "")
	require.Equal(t, http.StatusOK, check.Code, check.Body.String())
	checked := decode(t, check)
	assert.Equal(t, true, checked["exists"])
	assert.Equal(t, false, checked["isVerified"])
	assert.Equal(t, "email", checked["identifierType"])
	assert.Equal(t, "code", checked["nextStep"])
	assert.Equal(t, float64(30), checked["resendDelay"])

	require.Equal(t, 1, f.outbox.count())
	emailed := f.outbox.messages[0]
	assert.Equal(t, "bob@x.com", emailed.To)
	assert.Contains(t, emailed.Body, sentCode)

	verify := call(router, http.MethodPost, "/api/auth/verify-code",
		`{"identifier":"bob@x.com","code":"`+sentCode+`","identifierType":"email"}`, "")
	require.Equal(t, http.StatusOK, verify.Code, verify.Body.String())
	verified := decode(t, verify)
	assert.Equal(t, true, verified["verified"])
	assert.Equal(t, "password", verified["nextStep"])

	_, err := f.issuer.Status(context.Background(), verification.Key{
		Identifier: "bob@x.com", Kind: identifier.KindEmail, Purpose: verification.PurposeVerify,
	})
	assert.ErrorIs(t, err, verification.ErrNotFound)
}

func TestHandler_VerifyCodeErrors(t *testing.T) {
	f := newFixture(t)
	f.add(bob(false))
	router := newRouter(f)

	missing := call(router, http.MethodPost, "/api/auth/verify-code", `{"identifier":"bob@x.com","code":"123456"}`, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "VERIFICATION_NOT_FOUND", decode(t, missing)["errorCode"])

	call(router, http.MethodPost, "/api/auth/check-identifier", `{"identifier":"bob@x.com"}`, "")

	wrong := call(router, http.MethodPost, "/api/auth/verify-code", `{"identifier":"bob@x.com","code":"123456"}`, "")
	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, "INVALID_CODE", decode(t, wrong)["errorCode"])

	malformed := call(router, http.MethodPost, "/api/auth/verify-code", `{"identifier":"bob@x.com","code":"12ab"}`, "")
	assert.Equal(t, http.StatusBadRequest, malformed.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, malformed)["errorCode"])
}

func TestHandler_ResendScenario(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	body := `{"identifier":"carol@x.com","identifierType":"email","language":"fr"}`

	var last *httptest.ResponseRecorder
	for i := 1; i <= 6; i++ {
		last = call(router, http.MethodPost, "/api/auth/resend-verification", body, "")
		if i < 6 {
			require.Equal(t, http.StatusOK, last.Code, "call %d: %s", i, last.Body.String())
			assert.Equal(t, float64(30), decode(t, last)["resendDelay"])
		}
		f.clock.Advance(verification.ResendCooldown)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "MAX_ATTEMPTS_EXCEEDED", decode(t, last)["errorCode"])
}

func TestHandler_ResendCooldownCarriesRetryAfter(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	body := `{"identifier":"carol@x.com"}`

	require.Equal(t, http.StatusOK, call(router, http.MethodPost, "/api/auth/resend-verification", body, "").Code)

	cooling := call(router, http.MethodPost, "/api/auth/resend-verification", body, "")
	assert.Equal(t, http.StatusTooManyRequests, cooling.Code)
	assert.Equal(t, "30", cooling.Header().Get("Retry-After"))
	payload := decode(t, cooling)
	assert.Equal(t, "RESEND_COOLDOWN", payload["errorCode"])
	assert.Equal(t, float64(30), payload["retryAfter"])
}

func TestHandler_UnblockRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	call(router, http.MethodPost, "/api/auth/check-identifier", `{"identifier":"dave@x.com"}`, "")

	path := "/api/auth/verifications?identifier=dave@x.com&identifierType=email"

	assert.Equal(t, http.StatusUnauthorized, call(router, http.MethodDelete, path, "", "").Code)
	assert.Equal(t, http.StatusForbidden, call(router, http.MethodDelete, path, "", "tenant").Code)
	assert.Equal(t, http.StatusNoContent, call(router, http.MethodDelete, path, "", "admin").Code)
	assert.Equal(t, http.StatusNotFound, call(router, http.MethodDelete, path, "", "admin").Code)
}
