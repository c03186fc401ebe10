package domain

import "time"

// Patient is a care recipient profile.
type Patient struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId,omitempty"`
	FullName    string     `json:"fullName"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	DateOfBirth string     `json:"dateOfBirth,omitempty"`
	Status      UserStatus `json:"status,omitempty"`
	CreatedAt   time.Time  `json:"createdAt,omitempty"`
}
