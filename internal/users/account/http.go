// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/rentwise/internal/platform/middleware"
	requestutil "github.com/taibuivan/rentwise/internal/platform/request"
	"github.com/taibuivan/rentwise/internal/platform/respond"
	"github.com/taibuivan/rentwise/internal/platform/validate"
)

// Handler implements the HTTP layer for account security.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] with the account endpoints. All of them
// require an authenticated session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	// Session Security
	router.Get("/sessions", handler.listSessions)
	router.Post("/sessions/revoke-others", handler.revokeOtherSessions)
	router.Delete("/sessions/{sessionID}", handler.revokeSession)

	// Audit
	router.Get("/activity", handler.listActivity)

	return router
}

/*
GET /api/v1/account/sessions.

Description: Lists every device currently signed in to the account.

Response:
  - 200: {sessions: []SessionInfo}
  - 401: Authentication required
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.accountService.ListSessions(request.Context(), userID, requestutil.SessionToken(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"sessions": sessions})
}

/*
DELETE /api/v1/account/sessions/{sessionID}.

Description: Signs a single device out.

Response:
  - 204: No Content
  - 401: Authentication required
  - 404: Session not found
*/
func (handler *Handler) revokeSession(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := chi.URLParam(request, "sessionID")

	v := &validate.Validator{}
	v.UUID("sessionID", sessionID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.accountService.RevokeSession(request.Context(), userID, sessionID, requestutil.ClientIP(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/account/sessions/revoke-others.

Description: Signs every device out except the one making the request.

Response:
  - 200: {success, revoked}
  - 401: Authentication required
*/
func (handler *Handler) revokeOtherSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	revoked, err := handler.accountService.RevokeOtherSessions(request.Context(), userID,
		requestutil.SessionToken(request), requestutil.ClientIP(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"success": true, "revoked": revoked})
}

/*
GET /api/v1/account/activity?limit=20.

Response:
  - 200: {activity: []securitylog.Entry}
  - 400: limit out of range
  - 401: Authentication required
*/
func (handler *Handler) listActivity(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	limit := DefaultActivityLimit
	if raw := request.URL.Query().Get("limit"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		v := &validate.Validator{}
		v.Custom("limit", parseErr != nil, "must be a number").Range("limit", parsed, 1, 100)
		if err := v.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
		limit = parsed
	}

	entries, err := handler.accountService.RecentActivity(request.Context(), userID, limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"activity": entries})
}
