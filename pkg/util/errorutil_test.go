package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsMatchByCode(t *testing.T) {
	err := fmt.Errorf("calling backend: %w", NewRequestFailed(http.StatusConflict, "taken"))

	assert.True(t, errors.Is(err, ErrRequestFailed))
	assert.False(t, errors.Is(err, ErrSessionRejected))
	assert.Equal(t, http.StatusConflict, StatusOf(err))
	assert.False(t, errors.Is(NewInvalidCredentials("a"), NewInvalidCredentials("b")))
}

func TestRequestFailedDefaultsMessage(t *testing.T) {
	assert.Equal(t, "Bad Gateway", NewRequestFailed(http.StatusBadGateway, "").Error())
}

func TestTransportErrorWrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewTransportError(cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, ErrTransportFailed))
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	de := ToDomainError(errors.New("boom"))
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Nil(t, ToDomainError(nil))
	assert.Zero(t, StatusOf(errors.New("plain")))
}

func TestFromStatus(t *testing.T) {
	tests := map[int]string{
		http.StatusBadRequest:         CodeValidationFailed,
		http.StatusUnauthorized:       CodeUnauthorized,
		http.StatusForbidden:          CodeForbidden,
		http.StatusNotFound:           CodeNotFound,
		http.StatusConflict:           CodeConflict,
		http.StatusServiceUnavailable: CodeInternal,
	}
	for status, code := range tests {
		de := FromStatus(status, "")
		assert.Equal(t, code, de.Code, status)
		assert.Equal(t, http.StatusText(status), de.Message)
	}
}
