package service

import (
	"context"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/domain"
	"github.com/spec-kit/clinic-admin/internal/query"
)

// DoctorService manages practitioner accounts.
type DoctorService struct{ base }

func (s *DoctorService) List(ctx context.Context, params apiclient.Params) (domain.Page[domain.Doctor], error) {
	return read[domain.Page[domain.Doctor]](ctx, s.base, withParams(DoctorsKey(), params), "/doctors", params)
}

func (s *DoctorService) Get(ctx context.Context, id string) (domain.Doctor, error) {
	return read[domain.Doctor](ctx, s.base, DoctorProfileKey(id), apiclient.Path("/doctors/%s", id), nil)
}

func (s *DoctorService) Availability(ctx context.Context, id string) ([]domain.Availability, error) {
	return read[[]domain.Availability](ctx, s.base, DoctorAvailabilityKey(id), apiclient.Path("/doctors/%s/availability", id), nil)
}

// Verify marks a doctor's credentials as checked.
func (s *DoctorService) Verify(ctx context.Context, id string, verified bool) (domain.Doctor, error) {
	return write(ctx, s.base, func(ctx context.Context) (domain.Doctor, error) {
		return apiclient.Patch[domain.Doctor](ctx, s.api, apiclient.Path("/doctors/%s/verify", id), map[string]bool{"verified": verified})
	}, doctorKeys(id)...)
}

// SetStatus suspends or reactivates a doctor.
func (s *DoctorService) SetStatus(ctx context.Context, id string, status domain.UserStatus) (domain.Doctor, error) {
	return write(ctx, s.base, func(ctx context.Context) (domain.Doctor, error) {
		return apiclient.Patch[domain.Doctor](ctx, s.api, apiclient.Path("/doctors/%s/status", id), map[string]domain.UserStatus{"status": status})
	}, doctorKeys(id)...)
}

// UploadAvatar replaces the doctor's profile picture.
func (s *DoctorService) UploadAvatar(ctx context.Context, id string, file apiclient.File) (domain.Doctor, error) {
	if file.Field == "" {
		file.Field = "avatar"
	}
	return write(ctx, s.base, func(ctx context.Context) (domain.Doctor, error) {
		return apiclient.Upload[domain.Doctor](ctx, s.api, apiclient.Path("/doctors/%s/avatar", id), nil, file)
	}, DoctorProfileKey(id), DoctorsKey())
}

func (s *DoctorService) Delete(ctx context.Context, id string) error {
	return remove(ctx, s.base, apiclient.Path("/doctors/%s", id), append(doctorKeys(id), DoctorAppointmentsKey(id), AdminAppointmentsKey())...)
}

func doctorKeys(id string) []query.Key {
	return []query.Key{DoctorProfileKey(id), DoctorsKey(), DashboardStatsKey()}
}
