package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsMapStatus(t *testing.T) {
	tests := []struct {
		err    *AppError
		code   string
		status int
	}{
		{ErrValidation("bad"), CodeValidationError, http.StatusBadRequest},
		{ErrBadRequest("bad"), CodeBadRequest, http.StatusBadRequest},
		{ErrNotFoundWithID("plan", "P-1"), CodeNotFound, http.StatusNotFound},
		{ErrInvalidTransition("no"), CodeInvalidTransition, http.StatusConflict},
		{ErrConflict("dup"), CodeConflict, http.StatusConflict},
		{ErrInternal(""), CodeInternalError, http.StatusInternalServerError},
		{ErrUnprocessable("replay"), CodeUnprocessable, http.StatusUnprocessableEntity},
		{ErrUnavailable("down"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestNotFoundKeepsID(t *testing.T) {
	err := ErrNotFoundWithID("plan", "P-1")
	assert.Equal(t, "plan not found", err.Message)
	assert.Equal(t, "P-1", err.Details["id"])
}

func TestErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("save: %w", ErrInternal("boom").Wrap(cause))

	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeInternalError))
	assert.Equal(t, "INTERNAL_ERROR: boom: disk full", FromError(err).Error())
}

func TestMapDomainError(t *testing.T) {
	sentinel := errors.New("over capacity")
	classify := func(err error) *AppError {
		if errors.Is(err, sentinel) {
			return ErrValidation(err.Error())
		}
		return nil
	}

	assert.Nil(t, MapDomainError(nil, classify))

	mapped := MapDomainError(fmt.Errorf("assign: %w", sentinel), classify)
	require.NotNil(t, mapped)
	assert.Equal(t, CodeValidationError, mapped.Code)
	assert.ErrorIs(t, mapped, sentinel)

	unknown := MapDomainError(errors.New("socket closed"), classify)
	assert.Equal(t, CodeInternalError, unknown.Code)
	assert.Equal(t, "an internal error occurred", unknown.Message)

	existing := ErrConflict("dup")
	assert.Same(t, existing, MapDomainError(existing, classify))
	assert.False(t, IsAppError(errors.New("plain")))
}
