package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStatusErr struct {
	status int
	msg    string
}

func (e *fakeStatusErr) Error() string         { return e.msg }
func (e *fakeStatusErr) StatusCode() int       { return e.status }
func (e *fakeStatusErr) ServerMessage() string { return e.msg }

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "domain error passes through",
			err:        fmt.Errorf("wrapped: %w", NewForbidden("admins only")),
			wantCode:   "FORBIDDEN",
			wantStatus: http.StatusForbidden,
			wantMsg:    "admins only",
		},
		{
			name:       "upstream validation message is verbatim",
			err:        &fakeStatusErr{status: http.StatusBadRequest, msg: "slot already booked"},
			wantCode:   "VALIDATION_FAILED",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "slot already booked",
		},
		{
			name:       "upstream 5xx becomes bad gateway",
			err:        &fakeStatusErr{status: http.StatusInternalServerError, msg: "boom"},
			wantCode:   "UPSTREAM_ERROR",
			wantStatus: http.StatusBadGateway,
			wantMsg:    "boom",
		},
		{
			name:       "rejected with a success status",
			err:        &fakeStatusErr{status: http.StatusOK, msg: "email already registered"},
			wantCode:   "VALIDATION_FAILED",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "email already registered",
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("get: %w", context.DeadlineExceeded),
			wantCode:   "UPSTREAM_TIMEOUT",
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "network failure",
			err:        &url.Error{Op: "Get", URL: "http://api", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}},
			wantCode:   "UPSTREAM_UNAVAILABLE",
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "anything else",
			err:        errors.New("unexpected"),
			wantCode:   "INTERNAL_ERROR",
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, got.Message)
			}
		})
	}
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}
