package service

import (
	"context"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/domain"
)

// PatientService manages patient accounts.
type PatientService struct{ base }

func (s *PatientService) List(ctx context.Context, params apiclient.Params) (domain.Page[domain.Patient], error) {
	return read[domain.Page[domain.Patient]](ctx, s.base, withParams(PatientsKey(), params), "/patients", params)
}

func (s *PatientService) Get(ctx context.Context, id string) (domain.Patient, error) {
	return read[domain.Patient](ctx, s.base, PatientProfileKey(id), apiclient.Path("/patients/%s", id), nil)
}

// SetStatus suspends or reactivates a patient.
func (s *PatientService) SetStatus(ctx context.Context, id string, status domain.UserStatus) (domain.Patient, error) {
	return write(ctx, s.base, func(ctx context.Context) (domain.Patient, error) {
		return apiclient.Patch[domain.Patient](ctx, s.api, apiclient.Path("/patients/%s/status", id), map[string]domain.UserStatus{"status": status})
	}, PatientProfileKey(id), PatientsKey(), DashboardStatsKey())
}

func (s *PatientService) Delete(ctx context.Context, id string) error {
	return remove(ctx, s.base, apiclient.Path("/patients/%s", id), PatientProfileKey(id), PatientsKey(), PatientAppointmentsKey(id), AdminAppointmentsKey(), DashboardStatsKey())
}
