package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ValidationError("bad input"), http.StatusBadRequest},
		{NotConfiguredError("configure first"), http.StatusConflict},
		{OAuthError("denied", nil), http.StatusBadRequest},
		{UpstreamError("kick down", nil), http.StatusBadGateway},
		{InternalError("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.HTTPStatus(), tt.err.Message)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := UpstreamError("kick down", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "root cause")
}

func TestWithContext(t *testing.T) {
	err := ValidationError("bad limit").WithContext("limit", 999)

	resp := err.ToResponse()
	assert.Equal(t, "bad limit", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, 999, resp.Context["limit"])
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("already structured", func(t *testing.T) {
		original := ValidationError("bad input")
		assert.Same(t, original, AsStructuredError(original))
	})

	t.Run("wrapped structured", func(t *testing.T) {
		original := NotConfiguredError("configure first")
		wrapped := fmt.Errorf("handler: %w", original)
		assert.Same(t, original, AsStructuredError(wrapped))
	})

	t.Run("plain error", func(t *testing.T) {
		structured := AsStructuredError(errors.New("boom"))
		require.NotNil(t, structured)
		assert.Equal(t, TypeInternal, structured.Type)
	})
}
