// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/rentwise/internal/platform/apperr"
)

/*
TestAs_TraversesWrappedChain ensures service-level wrapping keeps the AppError reachable.
*/
func TestAs_TraversesWrappedChain(t *testing.T) {
	base := apperr.NotFound("Account")
	wrapped := fmt.Errorf("auth_service_login_failed: %w", base)

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, "NOT_FOUND", ae.Code)
	assert.True(t, apperr.IsNotFound(wrapped))
	assert.True(t, apperr.IsAppError(wrapped))
}

func TestIsNotFound_OtherErrors(t *testing.T) {
	assert.False(t, apperr.IsNotFound(errors.New("boom")))
	assert.False(t, apperr.IsNotFound(apperr.Conflict("taken")))
	assert.False(t, apperr.IsNotFound(nil))
}

/*
TestWithRetryAfter_DoesNotMutateSentinel verifies copies are returned so package-level
sentinels stay pristine across requests.
*/
func TestWithRetryAfter_DoesNotMutateSentinel(t *testing.T) {
	sentinel := apperr.New(http.StatusTooManyRequests, "RESEND_COOLDOWN", "Please wait")

	hinted := sentinel.WithRetryAfter(12)

	assert.Equal(t, 12, hinted.RetryAfter)
	assert.Zero(t, sentinel.RetryAfter)
	assert.True(t, apperr.HasCode(hinted, "RESEND_COOLDOWN"))
}

func TestWithCause_Unwraps(t *testing.T) {
	cause := errors.New("smtp: connection refused")
	err := apperr.New(http.StatusInternalServerError, "DELIVERY_FAILED", "Could not send").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Could not send", err.Error())
}

func TestRateLimited_CarriesRetryHint(t *testing.T) {
	err := apperr.RateLimited(30)

	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus)
	assert.Equal(t, 30, err.RetryAfter)
}
