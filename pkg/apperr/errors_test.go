package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeRender, http.StatusBadRequest},
		{CodeReference, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeDuplicateFilename, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeConcurrentModification, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeCheckerUnavailable, http.StatusServiceUnavailable},
		{CodeSyntaxCheckFailed, http.StatusUnprocessableEntity},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "boom").HTTPStatus)
		})
	}
}

func TestHTTPStatusHelper(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("host")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", New(CodeConflict, "taken"))
	assert.Equal(t, http.StatusConflict, HTTPStatus(wrapped))
}

func TestIs(t *testing.T) {
	err := New(CodeValidation, "bad input")
	assert.True(t, Is(err, CodeValidation))
	assert.False(t, Is(err, CodeNotFound))
	assert.False(t, Is(errors.New("plain"), CodeValidation))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.True(t, Is(wrapped, CodeValidation))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "db query failed")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db query failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestValidationDetail(t *testing.T) {
	err := Validation("filename", "too long")
	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, "filename", err.Details["field"])
}

func TestReferenceDetails(t *testing.T) {
	err := Reference("user alice", "member", "ghosts")
	assert.Equal(t, CodeReference, err.Code)
	assert.Equal(t, "user alice", err.Details["entity"])
	assert.Equal(t, "member", err.Details["field"])
	assert.Equal(t, "ghosts", err.Details["value"])
	assert.Contains(t, err.Message, `"ghosts"`)
}

func TestWithDetail(t *testing.T) {
	err := New(CodeSyntaxCheckFailed, "parse error").WithDetail("line", 12)
	require.NotNil(t, err.Details)
	assert.Equal(t, 12, err.Details["line"])
}
