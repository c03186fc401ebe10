package service

import (
	"context"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/domain"
)

// DashboardService serves the landing page and the user directory.
type DashboardService struct{ base }

func (s *DashboardService) Stats(ctx context.Context) (domain.DashboardStats, error) {
	return read[domain.DashboardStats](ctx, s.base, DashboardStatsKey(), "/admin/dashboard/stats", nil)
}

func (s *DashboardService) Users(ctx context.Context, params apiclient.Params) (domain.Page[domain.Identity], error) {
	return read[domain.Page[domain.Identity]](ctx, s.base, withParams(UsersKey(), params), "/users", params)
}

func (s *DashboardService) User(ctx context.Context, id string) (domain.Identity, error) {
	return read[domain.Identity](ctx, s.base, UserKey(id), apiclient.Path("/users/%s", id), nil)
}
