package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is returned when a response body is not the JSON the
// envelope contract promises.
var ErrMalformedResponse = errors.New("malformed api response")

// APIError is a response the platform API answered with a failure status, or
// with an envelope whose success flag is false.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// StatusCode returns the upstream HTTP status.
func (e *APIError) StatusCode() int {
	return e.Status
}

// ServerMessage returns the message the server sent, unchanged.
func (e *APIError) ServerMessage() string {
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports whether err is an upstream 401.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

func newAPIError(method, path string, status int, env Envelope, body []byte) *APIError {
	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Method: method, Path: path, Status: status, Message: msg, Body: body}
}
