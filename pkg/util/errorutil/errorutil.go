package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
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

// StatusError is implemented by errors that carry an upstream HTTP status.
type StatusError interface {
	error
	StatusCode() int
	ServerMessage() string
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewLocked(message string) error {
	return NewDomainError("SESSION_LOCKED", message, http.StatusLocked, nil)
}

func NewTooManyRequests(message string) error {
	return NewDomainError("RATE_LIMITED", message, http.StatusTooManyRequests, nil)
}

func NewUpstreamUnavailable(err error) error {
	return &DomainError{
		Code:       "UPSTREAM_UNAVAILABLE",
		Message:    "platform API unavailable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeForStatus names an HTTP status the way DomainError codes are spelled.
func CodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "VALIDATION_FAILED"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= 500 {
		return "UPSTREAM_ERROR"
	}
	return "REQUEST_FAILED"
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

	// Upstream 4xx messages are shown to the admin verbatim; 5xx become a gateway error.
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		status := statusErr.StatusCode()
		if status >= 500 {
			return &DomainError{
				Code:       "UPSTREAM_ERROR",
				Message:    statusErr.ServerMessage(),
				HTTPStatus: http.StatusBadGateway,
				Err:        err,
			}
		}
		// success:false on a 2xx is still a rejected request.
		if status < http.StatusBadRequest {
			status = http.StatusBadRequest
		}
		return &DomainError{
			Code:       CodeForStatus(status),
			Message:    statusErr.ServerMessage(),
			HTTPStatus: status,
			Err:        err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &DomainError{
			Code:       "UPSTREAM_TIMEOUT",
			Message:    "platform API timed out",
			HTTPStatus: http.StatusGatewayTimeout,
			Err:        err,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if de, ok := NewUpstreamUnavailable(err).(*DomainError); ok {
			return de
		}
	}

	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
