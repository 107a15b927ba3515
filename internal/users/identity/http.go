// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/rentwise/internal/platform/middleware"
	requestutil "github.com/taibuivan/rentwise/internal/platform/request"
	"github.com/taibuivan/rentwise/internal/platform/respond"
	"github.com/taibuivan/rentwise/internal/platform/sec"
	"github.com/taibuivan/rentwise/internal/platform/validate"
	"github.com/taibuivan/rentwise/internal/users/identifier"
	"github.com/taibuivan/rentwise/internal/users/verification"
)

// # Field Identifiers

const (
	FieldIdentifier     = "identifier"
	FieldIdentifierType = "identifierType"
	FieldCode           = "code"
	FieldPurpose        = "purpose"
	FieldSuccess        = "success"
	FieldResendDelay    = "resendDelay"
)

// Handler exposes the identifier and code endpoints of sign-in.
type Handler struct {
	resolver *Resolver
}

// NewHandler constructs a new [Handler].
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// RegisterRoutes attaches the endpoints to the auth router.
//
// # Endpoints
//   - POST   /check-identifier     : Classify, look up and pick the next step.
//   - POST   /verify-code          : Check a verification code.
//   - POST   /resend-verification  : Send another code.
//   - DELETE /verifications        : Clear a blocked identifier (admin).
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/check-identifier", handler.checkIdentifier)
	router.Post("/verify-code", handler.verifyCode)
	router.Post("/resend-verification", handler.resendVerification)

	router.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/verifications", handler.unblock)
}

// # Request Payloads

type checkIdentifierRequest struct {
	Identifier string `json:"identifier"`
	Language   string `json:"language"`
}

type verifyCodeRequest struct {
	Identifier     string `json:"identifier"`
	Code           string `json:"code"`
	IdentifierType string `json:"identifierType"`
}

type resendRequest struct {
	Identifier     string `json:"identifier"`
	IdentifierType string `json:"identifierType"`
	Language       string `json:"language"`
}

/*
CheckIdentifier resolves the identifier typed into the sign-in box.

POST /api/v1/auth/check-identifier

Request:
  - Body: checkIdentifierRequest (identifier, language)

Response:
  - 200: {exists, isVerified, identifierType, nextStep, user?, resendDelay?}
  - 403: ACCOUNT_DISABLED, IDENTIFIER_NOT_VERIFIED
  - 429: MAX_ATTEMPTS_EXCEEDED
  - 500: DELIVERY_FAILED
*/
func (handler *Handler) checkIdentifier(writer http.ResponseWriter, request *http.Request) {
	var input checkIdentifierRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldIdentifier, input.Identifier).MaxLen(FieldIdentifier, input.Identifier, 255)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	resolution, err := handler.resolver.Resolve(request.Context(), ResolveInput{
		Identifier: input.Identifier,
		Language:   languageOf(request, input.Language),
		IPAddress:  requestutil.ClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, resolution)
}

/*
VerifyCode checks a verification code.

POST /api/v1/auth/verify-code

Request:
  - Body: verifyCodeRequest (identifier, code, identifierType)

Response:
  - 200: {verified, nextStep, registrationToken?}
  - 400: INVALID_CODE or EXPIRED_CODE
  - 404: VERIFICATION_NOT_FOUND
  - 429: MAX_ATTEMPTS_EXCEEDED
*/
func (handler *Handler) verifyCode(writer http.ResponseWriter, request *http.Request) {
	var input verifyCodeRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldIdentifier, input.Identifier).
		MaxLen(FieldIdentifier, input.Identifier, 255).
		Required(FieldCode, input.Code).
		Digits(FieldCode, input.Code, verification.MinCodeLength, verification.MaxCodeLength)
	if input.IdentifierType != "" {
		v.OneOf(FieldIdentifierType, input.IdentifierType, string(identifier.KindEmail), string(identifier.KindPhone))
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	confirmation, err := handler.resolver.ConfirmCode(request.Context(), ConfirmInput{
		Identifier:     input.Identifier,
		IdentifierType: identifier.Kind(input.IdentifierType),
		Code:           input.Code,
		IPAddress:      requestutil.ClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, confirmation)
}

/*
ResendVerification sends another code.

POST /api/v1/auth/resend-verification

Request:
  - Body: resendRequest (identifier, identifierType, language)

Response:
  - 200: {success, resendDelay}
  - 429: RESEND_COOLDOWN (with retryAfter) or MAX_ATTEMPTS_EXCEEDED
*/
func (handler *Handler) resendVerification(writer http.ResponseWriter, request *http.Request) {
	var input resendRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldIdentifier, input.Identifier).MaxLen(FieldIdentifier, input.Identifier, 255)
	if input.IdentifierType != "" {
		v.OneOf(FieldIdentifierType, input.IdentifierType, string(identifier.KindEmail), string(identifier.KindPhone))
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	resendDelay, err := handler.resolver.Resend(request.Context(), ResendInput{
		Identifier:     input.Identifier,
		IdentifierType: identifier.Kind(input.IdentifierType),
		Language:       languageOf(request, input.Language),
		IPAddress:      requestutil.ClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldSuccess:     true,
		FieldResendDelay: resendDelay,
	})
}

/*
Unblock clears the verification record of an identifier.

DELETE /api/v1/auth/verifications?identifier=...&identifierType=...&purpose=...

Response:
  - 204: No Content
  - 403: Forbidden (not an admin)
  - 404: VERIFICATION_NOT_FOUND
*/
func (handler *Handler) unblock(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	raw := query.Get(FieldIdentifier)
	kind := query.Get(FieldIdentifierType)
	purpose := query.Get(FieldPurpose)

	v := &validate.Validator{}
	v.Required(FieldIdentifier, raw)
	if kind != "" {
		v.OneOf(FieldIdentifierType, kind, string(identifier.KindEmail), string(identifier.KindPhone))
	}
	if purpose != "" {
		v.OneOf(FieldPurpose, purpose, string(verification.PurposeVerify), string(verification.PurposeReset))
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.resolver.Unblock(request.Context(), raw, identifier.Kind(kind), verification.Purpose(purpose))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func languageOf(request *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return request.Header.Get("Accept-Language")
}
