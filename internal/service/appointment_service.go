package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/domain"
	"github.com/spec-kit/clinic-admin/internal/query"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

// AppointmentService manages appointments across all doctors.
type AppointmentService struct{ base }

// List returns the admin appointment list.
func (s *AppointmentService) List(ctx context.Context, params apiclient.Params) (domain.Page[domain.Appointment], error) {
	return read[domain.Page[domain.Appointment]](ctx, s.base, withParams(AdminAppointmentsKey(), params), "/appointments", params)
}

// Get returns one appointment.
func (s *AppointmentService) Get(ctx context.Context, id string) (domain.Appointment, error) {
	return read[domain.Appointment](ctx, s.base, AppointmentKey(id), apiclient.Path("/appointments/%s", id), nil)
}

// ForDoctor lists a doctor's appointments.
func (s *AppointmentService) ForDoctor(ctx context.Context, doctorID string, params apiclient.Params) ([]domain.Appointment, error) {
	return read[[]domain.Appointment](ctx, s.base, withParams(DoctorAppointmentsKey(doctorID), params),
		apiclient.Path("/appointments/doctor/%s", doctorID), params)
}

// ForPatient lists a patient's appointments.
func (s *AppointmentService) ForPatient(ctx context.Context, patientID string, params apiclient.Params) ([]domain.Appointment, error) {
	return read[[]domain.Appointment](ctx, s.base, withParams(PatientAppointmentsKey(patientID), params),
		apiclient.Path("/appointments/patient/%s", patientID), params)
}

var statusActions = map[domain.AppointmentStatus]string{
	domain.AppointmentAccepted:  "accept",
	domain.AppointmentRejected:  "reject",
	domain.AppointmentCompleted: "complete",
	domain.AppointmentCancelled: "cancel",
}

// Accept confirms a pending appointment.
func (s *AppointmentService) Accept(ctx context.Context, id string) (domain.Appointment, error) {
	return s.SetStatus(ctx, id, domain.AppointmentAccepted, "")
}

// Reject declines a pending appointment.
func (s *AppointmentService) Reject(ctx context.Context, id, reason string) (domain.Appointment, error) {
	return s.SetStatus(ctx, id, domain.AppointmentRejected, reason)
}

// SetStatus moves an appointment to status.
func (s *AppointmentService) SetStatus(ctx context.Context, id string, status domain.AppointmentStatus, reason string) (domain.Appointment, error) {
	action, ok := statusActions[status]
	if !ok {
		return domain.Appointment{}, apperrors.NewValidationError(fmt.Sprintf("cannot move appointment to %q", status), nil)
	}

	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	return query.MutateWith(ctx, s.cache, func(ctx context.Context) (domain.Appointment, error) {
		return apiclient.Patch[domain.Appointment](ctx, s.api, apiclient.Path("/appointments/%s/", id)+action, body)
	}, func(out domain.Appointment) []query.Key {
		return appointmentKeys(id, out.DoctorID, out.PatientID)
	})
}

// Delete removes an appointment.
func (s *AppointmentService) Delete(ctx context.Context, appt domain.Appointment) error {
	return remove(ctx, s.base, apiclient.Path("/appointments/%s", appt.ID), appointmentKeys(appt.ID, appt.DoctorID, appt.PatientID)...)
}

// appointmentKeys are the reads an appointment write can change. When the
// doctor or patient is unknown every doctor or patient list is invalidated.
func appointmentKeys(id, doctorID, patientID string) []query.Key {
	keys := []query.Key{AppointmentKey(id), AdminAppointmentsKey(), DashboardStatsKey()}
	if doctorID != "" {
		keys = append(keys, DoctorAppointmentsKey(doctorID))
	} else {
		keys = append(keys, query.Key{keyDoctorAppointments})
	}
	if patientID != "" {
		keys = append(keys, PatientAppointmentsKey(patientID))
	} else {
		keys = append(keys, query.Key{keyPatientAppointments})
	}
	return keys
}

