package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the client layer, the portal and the dev backend.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeSessionRejected    = "SESSION_REJECTED"
	CodeMalformedSession   = "MALFORMED_SESSION"
	CodeRequestFailed      = "REQUEST_FAILED"
	CodeTransportFailed    = "TRANSPORT_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code so errors.Is works against the
// sentinel values below.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code && other.Message == ""
}

// Sentinels for errors.Is checks. They carry a code only.
var (
	ErrInvalidCredentials = &DomainError{Code: CodeInvalidCredentials}
	ErrValidationFailed   = &DomainError{Code: CodeValidationFailed}
	ErrSessionRejected    = &DomainError{Code: CodeSessionRejected}
	ErrRequestFailed      = &DomainError{Code: CodeRequestFailed}
	ErrTransportFailed    = &DomainError{Code: CodeTransportFailed}
	ErrForbidden          = &DomainError{Code: CodeForbidden}
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewInvalidCredentials(message string) error {
	return NewDomainError(CodeInvalidCredentials, message, http.StatusUnauthorized, nil)
}

// NewSessionRejected reports a 401 from the backend. The session has already
// been cleared by the time callers see it.
func NewSessionRejected(message string) error {
	return NewDomainError(CodeSessionRejected, message, http.StatusUnauthorized, nil)
}

// NewRequestFailed wraps a non-401 backend failure with its status and message.
func NewRequestFailed(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return NewDomainError(CodeRequestFailed, message, status, nil)
}

func NewTransportError(err error) error {
	return &DomainError{
		Code:       CodeTransportFailed,
		Message:    "backend unreachable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// FromStatus builds a DomainError for a bare HTTP status, such as a routing
// failure raised by the web framework.
func FromStatus(status int, message string) *DomainError {
	code := CodeInternal
	switch status {
	case http.StatusBadRequest:
		code = CodeValidationFailed
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusForbidden:
		code = CodeForbidden
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusConflict:
		code = CodeConflict
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return NewDomainError(code, message, status, nil)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.HTTPStatus
	}
	return 0
}

func MapError(err error) error {
	return ToDomainError(err)
}
