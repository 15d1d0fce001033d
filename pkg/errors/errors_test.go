package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAppError_PassesThroughWrapped(t *testing.T) {
	wrapped := fmt.Errorf("loading ride: %w", ErrRideNotFound)

	appErr := GetAppError(wrapped)

	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestGetAppError_UnknownBecomesInternal(t *testing.T) {
	appErr := GetAppError(stderrors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "An unexpected error occurred", appErr.Message)
	assert.EqualError(t, appErr, "An unexpected error occurred: connection refused")
}

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	withDetails := ErrDriverTransition.WithDetails(map[string]string{"currentStatus": "pending"})

	assert.NotNil(t, withDetails.Details)
	assert.Nil(t, ErrDriverTransition.Details)
	assert.Equal(t, http.StatusForbidden, withDetails.Status)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"validation", Validation("bad", nil), http.StatusBadRequest},
		{"unauthorized", Unauthorized("no token", nil), http.StatusUnauthorized},
		{"forbidden", ErrInsufficientPermissions, http.StatusForbidden},
		{"not found", ErrDriverNotFound, http.StatusNotFound},
		{"conflict", Conflict("dup", nil), http.StatusConflict},
		{"unavailable", ServiceUnavailable("down", nil), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.True(t, IsAppError(tt.err))
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))
	assert.EqualError(t, Wrap(stderrors.New("boom"), "context"), "context: boom")
}
