package domain

import "time"

// AppointmentStatus enumerates appointment lifecycle states.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "PENDING"
	AppointmentAccepted  AppointmentStatus = "ACCEPTED"
	AppointmentRejected  AppointmentStatus = "REJECTED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// Appointment is a booked consultation between a patient and a doctor.
type Appointment struct {
	ID          string            `json:"id"`
	DoctorID    string            `json:"doctorId"`
	PatientID   string            `json:"patientId"`
	DoctorName  string            `json:"doctorName,omitempty"`
	PatientName string            `json:"patientName,omitempty"`
	ScheduledAt time.Time         `json:"scheduledAt"`
	DurationMin int               `json:"durationMinutes,omitempty"`
	Status      AppointmentStatus `json:"status"`
	Reason      string            `json:"reason,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Fee         float64           `json:"fee,omitempty"`
	CreatedAt   time.Time         `json:"createdAt,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt,omitempty"`
}
