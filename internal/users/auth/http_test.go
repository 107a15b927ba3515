// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/rentwise/internal/platform/constants"
	"github.com/taibuivan/rentwise/internal/platform/middleware"
	"github.com/taibuivan/rentwise/internal/users/auth"
)

func newRouter(f *fixture, cookies auth.CookieSettings) http.Handler {
	handler := auth.NewHandler(f.service, cookies, "https://app.rentwise.test/")
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(f.service))
	router.Mount("/api/v1/auth", handler.Routes())
	return router
}

func post(router http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	request.RemoteAddr = "10.0.0.1:5555"
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func sessionCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == constants.SessionCookieName {
			return cookie
		}
	}
	t.Fatalf("no %s cookie in response", constants.SessionCookieName)
	return nil
}

func TestHandler_LoginSetsCookieMatchingSession(t *testing.T) {
	f := newFixture(t)
	account := f.seed(t, "bob@x.com")
	router := newRouter(f, auth.CookieSettings{Domain: "rentwise.test"})

	recorder := post(router, "/api/v1/auth/login",
		`{"identifier":"bob@x.com","password":"`+testPassword+`","device_name":"Firefox","device_type":"web"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var body struct {
		Success     bool           `json:"success"`
		User        map[string]any `json:"user"`
		Session     map[string]any `json:"session"`
		RedirectURL string         `json:"redirectUrl"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, account.ID, body.User["id"])
	assert.NotContains(t, body.User, "passwordHash")
	assert.Equal(t, "https://app.rentwise.test/tenant/dashboard", body.RedirectURL)

	cookie := sessionCookie(t, recorder)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "rentwise.test", cookie.Domain)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int(auth.SessionTTL.Seconds()), cookie.MaxAge)

	active := f.sessions.active(account.ID)
	require.Len(t, active, 1)
	assert.Equal(t, active[0].Token, cookie.Value)
	assert.Equal(t, active[0].ID, body.Session["id"])
	assert.Equal(t, "Firefox", active[0].DeviceName)
	assert.Equal(t, "10.0.0.1", active[0].IPAddress)
}

func TestHandler_LoginCookieInProduction(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "bob@x.com")
	router := newRouter(f, auth.CookieSettings{Production: true})

	recorder := post(router, "/api/v1/auth/login", `{"identifier":"bob@x.com","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	cookie := sessionCookie(t, recorder)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
}

func TestHandler_LoginFailuresAreByteIdentical(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "bob@x.com")
	router := newRouter(f, auth.CookieSettings{})

	unknown := post(router, "/api/v1/auth/login", `{"identifier":"ghost@x.com","password":"whatever-123"}`)
	wrong := post(router, "/api/v1/auth/login", `{"identifier":"bob@x.com","password":"whatever-123"}`)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, unknown.Code, wrong.Code)
	assert.Equal(t, unknown.Body.Bytes(), wrong.Body.Bytes())
	assert.JSONEq(t, `{"error":"Invalid identifier or password","errorCode":"INVALID_CREDENTIALS"}`, wrong.Body.String())
	assert.Empty(t, wrong.Result().Cookies())
}

func TestHandler_LoginValidation(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f, auth.CookieSettings{})

	recorder := post(router, "/api/v1/auth/login", `{"identifier":""}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")

	recorder = post(router, "/api/v1/auth/login", `not json`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandler_LogoutClearsCookieAndSession(t *testing.T) {
	f := newFixture(t)
	account := f.seed(t, "bob@x.com")
	router := newRouter(f, auth.CookieSettings{})

	login := post(router, "/api/v1/auth/login", `{"identifier":"bob@x.com","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookie(t, login)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	request.AddCookie(cookie)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), account.ID)

	logout := post(router, "/api/v1/auth/logout", ``, cookie)
	require.Equal(t, http.StatusOK, logout.Code)
	cleared := sessionCookie(t, logout)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
	assert.Empty(t, f.sessions.active(account.ID))

	// The old cookie no longer authenticates
	request = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	request.AddCookie(cookie)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Logging out without a session is fine too
	assert.Equal(t, http.StatusOK, post(router, "/api/v1/auth/logout", ``).Code)
}

func TestHandler_BearerHeaderAuthenticates(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "bob@x.com")
	router := newRouter(f, auth.CookieSettings{})

	login := post(router, "/api/v1/auth/login", `{"identifier":"bob@x.com","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, login.Code)

	request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/change-password",
		strings.NewReader(`{"currentPassword":"`+testPassword+`","newPassword":"brand-new-password"}`))
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+sessionCookie(t, login).Value)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
}
