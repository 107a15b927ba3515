// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"

	"github.com/taibuivan/rentwise/internal/platform/apperr"
	"github.com/taibuivan/rentwise/internal/platform/constants"
	"github.com/taibuivan/rentwise/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/rentwise/internal/platform/request"
	"github.com/taibuivan/rentwise/internal/platform/respond"
	"github.com/taibuivan/rentwise/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// Verification is expected to check both the signature and that the backing
// session row is still active, so a logged-out token stops working at once.
type TokenVerifier interface {
	VerifyToken(context context.Context, token string) (*sec.AuthClaims, error)
}

// Authenticate resolves the session token and injects the claims into the context.
//
// # Flow
//  1. Read the token from `Authorization: Bearer` or the session cookie.
//  2. If absent, request proceeds as anonymous.
//  3. Verify the token via [TokenVerifier].
//  4. A bad header token is rejected with 401; a bad cookie is ignored so a
//     stale cookie never locks a browser out of the login page.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			fromHeader := request.Header.Get(constants.HeaderAuthorization) != ""
			token := requestutil.SessionToken(request)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if token == "" {
				if fromHeader {
					respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
					return
				}
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(request.Context(), token)
			if err != nil {
				if fromHeader {
					respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
					return
				}
				next.ServeHTTP(writer, request)
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			ctx = ctxutil.WithSessionToken(ctx, token)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With("user_id", claims.UserID))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated user doesn't have the required role.
//
// It implies [RequireAuth] so you don't need to mount both.
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !sec.UserRole(claims.Role).AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
