package dto

import (
	"strings"

	"github.com/spec-kit/clinic-admin/internal/domain"
	"github.com/spec-kit/clinic-admin/internal/session"
)

// LoginRequest payload for sign-in.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Normalize trims the email.
func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// RegisterRequest payload for account creation.
type RegisterRequest struct {
	FullName string         `json:"fullName" form:"fullName"`
	Email    string         `json:"email" form:"email"`
	Password string         `json:"password" form:"password"`
	Phone    string         `json:"phone" form:"phone"`
	Role     string         `json:"role" form:"role"`
	Profile  map[string]any `json:"profile" form:"-"`
}

// Input converts the request for the session store.
func (r RegisterRequest) Input() session.RegisterInput {
	return session.RegisterInput{
		FullName: strings.TrimSpace(r.FullName),
		Email:    strings.TrimSpace(r.Email),
		Password: r.Password,
		Phone:    strings.TrimSpace(r.Phone),
		Profile:  r.Profile,
	}
}

// RoleOrDefault parses Role, defaulting to ADMIN.
func (r RegisterRequest) RoleOrDefault() domain.Role {
	if strings.TrimSpace(r.Role) == "" {
		return domain.RoleAdmin
	}
	return domain.Role(strings.ToUpper(strings.TrimSpace(r.Role)))
}

// ForgotPasswordRequest payload.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

// UnlockRequest payload for the lock screen.
type UnlockRequest struct {
	Password string `json:"password" form:"password"`
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	Loading       bool             `json:"loading"`
	Locked        bool             `json:"locked"`
	Authenticated bool             `json:"authenticated"`
	User          *domain.Identity `json:"user,omitempty"`
}
