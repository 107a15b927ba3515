// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/rentwise/internal/platform/constants"
	"github.com/taibuivan/rentwise/internal/platform/middleware"
	requestutil "github.com/taibuivan/rentwise/internal/platform/request"
	"github.com/taibuivan/rentwise/internal/platform/respond"
	"github.com/taibuivan/rentwise/internal/platform/sec"
	"github.com/taibuivan/rentwise/internal/platform/validate"
)

// # Definitions & Constructors

// CookieSettings controls how the session cookie is written.
type CookieSettings struct {
	// Domain scopes the cookie. Empty means host-only.
	Domain string
	// Production turns on Secure and cross-site SameSite=None.
	Production bool
}

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the session side of sign-in (Login, Logout), account
// creation after verification and password management.
type Handler struct {
	authService *Service
	cookies     CookieSettings
	clientURL   string
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service, cookies CookieSettings, clientURL string) *Handler {
	return &Handler{
		authService: service,
		cookies:     cookies,
		clientURL:   strings.TrimRight(clientURL, "/"),
	}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

// RegisterRoutes attaches the endpoints to an existing router so they can
// share a prefix with the identifier endpoints.
//
// # Endpoints
//   - POST /login           : Checks credentials and sets the session cookie.
//   - POST /logout          : Deactivates the current session.
//   - POST /register        : Creates an account from a registration ticket.
//   - POST /forgot-password : Sends a reset code.
//   - POST /reset-password  : Sets a new password with a reset code.
//   - POST /change-password : Rotates the password (authenticated).
//   - GET  /me              : Current account (authenticated).
func (handler *Handler) RegisterRoutes(router chi.Router) {

	// Public endpoints
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Post("/register", handler.register)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/change-password", handler.changePassword)
		r.Get("/me", handler.me)
	})
}

// # Request Payloads

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
	UserAgent  string `json:"user_agent"`
	Language   string `json:"language"`
}

type registerRequest struct {
	RegistrationToken string `json:"registrationToken"`
	Password          string `json:"password"`
	FullName          string `json:"fullName"`
	Username          string `json:"username"`
	Role              string `json:"role"`
}

type forgotPasswordRequest struct {
	Identifier string `json:"identifier"`
	Language   string `json:"language"`
}

type resetPasswordRequest struct {
	Identifier  string `json:"identifier"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, persists a device-bound session and sets
the `token` cookie. The cookie is written only after the session row has been
read back from storage.

Request:
  - Body: loginRequest (identifier, password, device_name, device_type, user_agent)

Response:
  - 200: {success, user, session, redirectUrl}
  - 401: INVALID_CREDENTIALS: Unknown identifier or wrong password
  - 403: ACCOUNT_DISABLED, ACCOUNT_LOCKED or IDENTIFIER_NOT_VERIFIED
  - 500: SESSION_NOT_PERSISTED
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldIdentifier, input.Identifier).
		MaxLen(FieldIdentifier, input.Identifier, 255).
		Required(FieldPassword, input.Password).
		MaxLen(FieldPassword, input.Password, 72).
		MaxLen(FieldDeviceType, input.DeviceType, 32)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	userAgent := input.UserAgent
	if userAgent == "" {
		userAgent = request.UserAgent()
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Identifier: input.Identifier,
		Password:   input.Password,
		DeviceName: input.DeviceName,
		DeviceType: input.DeviceType,
		UserAgent:  userAgent,
		IPAddress:  requestutil.ClientIP(request),
		Language:   preferredLanguage(request, input.Language),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, session.Token, session.Session.ExpiresAt)

	respond.OK(writer, map[string]any{
		FieldSuccess:     true,
		FieldUser:        session.Account,
		FieldSession:     session.Session,
		FieldRedirectURL: handler.redirectURL(session.Account.Role),
	})
}

/*
Logout terminates the current session.

POST /api/v1/auth/logout

Description: Deactivates the session of the presented token (if any) and
clears the cookie. Calling it without a session still succeeds.

Response:
  - 200: {success}
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if token := requestutil.SessionToken(request); token != "" {
		if err := handler.authService.Logout(request.Context(), token, requestutil.ClientIP(request)); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	handler.clearSessionCookie(writer)

	respond.OK(writer, map[string]any{FieldSuccess: true})
}

/*
Register creates an account for a freshly verified identifier.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (registrationToken, password, fullName, username?, role?)

Response:
  - 201: {success, user}
  - 400: INVALID_REGISTRATION_TOKEN or validation failure
  - 409: Conflict: Identifier or username already taken
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldRegistrationToken, input.RegistrationToken).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		MaxLen(FieldPassword, input.Password, 72).
		MaxLen(FieldFullName, input.FullName, 120).
		MaxLen(FieldUsername, input.Username, 50)

	if input.Role != "" {
		validator.OneOf(FieldRole, input.Role, string(sec.RoleTenant), string(sec.RoleLandlord))
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.authService.Register(request.Context(), RegisterInput{
		RegistrationToken: input.RegistrationToken,
		Password:          input.Password,
		FullName:          input.FullName,
		Username:          input.Username,
		Role:              sec.UserRole(input.Role),
		IPAddress:         requestutil.ClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]any{
		FieldSuccess: true,
		FieldUser:    account,
	})
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgot-password

Description: Sends a reset code if an account owns the identifier. The
response is identical either way.

Request:
  - Body: forgotPasswordRequest (identifier, language)

Response:
  - 200: {success, message, resendDelay}
  - 400: Validation failure
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

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

	resendDelay, err := handler.authService.ForgotPassword(request.Context(), ForgotPasswordInput{
		Identifier: input.Identifier,
		Language:   preferredLanguage(request, input.Language),
		IPAddress:  requestutil.ClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldSuccess:     true,
		FieldMessage:     "If this identifier is registered, a reset code has been sent.",
		FieldResendDelay: resendDelay,
	})
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Request:
  - Body: resetPasswordRequest (identifier, code, newPassword)

Response:
  - 200: {success, message}
  - 400: INVALID_CODE, EXPIRED_CODE or weak password
  - 404: VERIFICATION_NOT_FOUND
  - 429: MAX_ATTEMPTS_EXCEEDED
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldIdentifier, input.Identifier).
		Required(FieldCode, input.Code).
		Digits(FieldCode, input.Code, 4, 6).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, MinPasswordLength).
		MaxLen(FieldNewPassword, input.NewPassword, 72)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.ResetPassword(request.Context(), ResetPasswordInput{
		Identifier:  input.Identifier,
		Code:        input.Code,
		NewPassword: input.NewPassword,
		IPAddress:   requestutil.ClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldSuccess: true,
		FieldMessage: "Password updated successfully",
	})
}

/*
ChangePassword updates the authenticated user's password.

POST /api/v1/auth/change-password

Description: Verifies the current password, then signs out every other
device. The current session stays active.

Request:
  - Body: changePasswordRequest (currentPassword, newPassword)

Response:
  - 200: {success, message}
  - 401: Unauthorized: Wrong current password or no session
  - 400: Weak password or validation failure
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, MinPasswordLength).
		MaxLen(FieldNewPassword, input.NewPassword, 72)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangePassword(
		request.Context(),
		claims.UserID,
		input.CurrentPassword,
		input.NewPassword,
		requestutil.SessionToken(request),
		requestutil.ClientIP(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldSuccess: true,
		FieldMessage: "Password changed successfully",
	})
}

/*
Me returns the authenticated account.

GET /api/v1/auth/me

Response:
  - 200: {success, user}
  - 401: Unauthorized
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.authService.Me(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldSuccess: true,
		FieldUser:    account,
	})
}

// # Cookies

func (handler *Handler) setSessionCookie(writer http.ResponseWriter, token string, expiresAt time.Time) {
	cookie := handler.baseCookie()
	cookie.Value = token
	cookie.Expires = expiresAt
	cookie.MaxAge = int(SessionTTL / time.Second)
	http.SetCookie(writer, cookie)
}

func (handler *Handler) clearSessionCookie(writer http.ResponseWriter) {
	cookie := handler.baseCookie()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(writer, cookie)
}

func (handler *Handler) baseCookie() *http.Cookie {
	cookie := &http.Cookie{
		Name:     constants.SessionCookieName,
		Path:     constants.SessionCookiePath,
		Domain:   handler.cookies.Domain,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if handler.cookies.Production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}

// redirectURL points the client at the dashboard of the role.
func (handler *Handler) redirectURL(role sec.UserRole) string {
	return handler.clientURL + role.DashboardPath()
}

// preferredLanguage picks the body language, then Accept-Language.
func preferredLanguage(request *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return request.Header.Get("Accept-Language")
}
