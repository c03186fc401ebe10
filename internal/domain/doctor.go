package domain

import "time"

// Doctor is a practitioner profile.
type Doctor struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId,omitempty"`
	FullName       string     `json:"fullName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	Specialization string     `json:"specialization,omitempty"`
	Experience     int        `json:"experienceYears,omitempty"`
	ConsultFee     float64    `json:"consultationFee,omitempty"`
	Verified       bool       `json:"verified"`
	Status         UserStatus `json:"status,omitempty"`
	Rating         float64    `json:"rating,omitempty"`
	CreatedAt      time.Time  `json:"createdAt,omitempty"`
}

// Availability is a weekly slot a doctor accepts bookings in.
type Availability struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}
