package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{"without cause", NewNotFoundError("sleep file"), "[NOT_FOUND] sleep file not found"},
		{"with cause", NewParsingError("bad timestamp", fmt.Errorf("boom")), "[PARSING] bad timestamp: boom"},
		{"insufficient", NewInsufficientDataError("pearson", 2, 3), "[INSUFFICIENT_DATA] pearson: have 2 values, need 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := NewStorageError("write failed", os.ErrPermission)
	wrapped := fmt.Errorf("step: %w", err)

	assert.True(t, stderrors.Is(wrapped, os.ErrPermission))
	assert.True(t, IsType(wrapped, ErrTypeStorage))
	assert.False(t, IsType(wrapped, ErrTypeParsing))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrTypeStorage))
}

func TestWithContext(t *testing.T) {
	err := (&AppError{Type: ErrTypeValidation, Message: "x"}).WithContext("participant", "03")
	assert.Equal(t, "03", err.Context["participant"])
}

func TestFromAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", NewNotFoundError("table"), http.StatusNotFound},
		{"validation", NewAppValidationError("bad"), http.StatusBadRequest},
		{"parsing", NewParsingError("bad", nil), http.StatusBadRequest},
		{"insufficient", NewInsufficientDataError("x", 1, 2), http.StatusUnprocessableEntity},
		{"storage", NewStorageError("disk", nil), http.StatusInternalServerError},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError},
		{"api passthrough", ErrRunInProgress, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, FromAppError(tt.err).StatusCode)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NotFoundError("table CR_models.csv"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"error_code":"NOT_FOUND"`)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}
