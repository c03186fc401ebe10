package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Role enumerates platform account types.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleDoctor   Role = "DOCTOR"
	RolePatient  Role = "PATIENT"
	RolePharmacy Role = "PHARMACY"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient, RolePharmacy:
		return true
	}
	return false
}

// UnmarshalJSON accepts roles in any letter case.
func (r *Role) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Role(strings.ToUpper(strings.TrimSpace(raw)))
	return nil
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// Identity is the authenticated account as returned by the platform API.
type Identity struct {
	ID        string     `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Phone     string     `json:"phone,omitempty"`
	Avatar    string     `json:"avatar,omitempty"`
	Status    UserStatus `json:"status,omitempty"`
	CreatedAt time.Time  `json:"createdAt,omitempty"`
}

// IsAdmin reports whether the identity may use the dashboard.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
