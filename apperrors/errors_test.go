package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestConstructorsMapStatusCodes(t *testing.T) {
	cases := []struct {
		err  *AppError
		code int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewUnauthorizedError("who"), http.StatusUnauthorized},
		{NewForbiddenError("no"), http.StatusForbidden},
		{NewNotFoundError("gone"), http.StatusNotFound},
		{NewConflictError("dup"), http.StatusConflict},
		{NewCapacityExhaustedError("empty"), http.StatusBadRequest},
		{NewTooManyRequestsError("slow down"), http.StatusTooManyRequests},
		{NewUpstreamError("sms"), http.StatusInternalServerError},
		{NewInternalError("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code, tc.err.Error())
	}
}

func TestGetAppError_Wrapped(t *testing.T) {
	sentinel := NewConflictError("already claimed")
	wrapped := fmt.Errorf("cause c-1: %w", sentinel)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.Same(t, sentinel, GetAppError(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeConflict))
	assert.Nil(t, GetAppError(errors.New("plain")))
}

func TestWithDetails(t *testing.T) {
	base := NewValidationError("invalid input")
	detailed := base.WithDetails("bagCount must be positive")

	assert.Equal(t, "", base.Details)
	assert.Equal(t, "validation_error: invalid input (bagCount must be positive)", detailed.Error())
}

func TestIsDuplicateError(t *testing.T) {
	assert.False(t, IsDuplicateError(nil))
	assert.True(t, IsDuplicateError(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_claim_cause_claimant"`)))
	assert.True(t, IsDuplicateError(errors.New("UNIQUE constraint failed: claims.cause_id, claims.claimant_identifier")))
	assert.False(t, IsDuplicateError(errors.New("connection refused")))
}
