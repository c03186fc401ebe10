package service

import (
	"context"
	"strings"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/domain"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

// SubscriptionService manages membership plans and subscribers.
type SubscriptionService struct{ base }

func (s *SubscriptionService) Plans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	return read[[]domain.SubscriptionPlan](ctx, s.base, SubscriptionPlansKey(), "/subscriptions/plans", nil)
}

func (s *SubscriptionService) List(ctx context.Context, params apiclient.Params) (domain.Page[domain.Subscription], error) {
	return read[domain.Page[domain.Subscription]](ctx, s.base, withParams(SubscriptionsKey(), params), "/subscriptions", params)
}

// SavePlan creates plan when it has no id and updates it otherwise.
func (s *SubscriptionService) SavePlan(ctx context.Context, plan domain.SubscriptionPlan) (domain.SubscriptionPlan, error) {
	if strings.TrimSpace(plan.Name) == "" {
		return domain.SubscriptionPlan{}, apperrors.NewValidationError("plan name is required", nil)
	}
	if plan.Price < 0 || plan.DurationDays <= 0 {
		return domain.SubscriptionPlan{}, apperrors.NewValidationError("plan price and duration must be positive", nil)
	}
	return write(ctx, s.base, func(ctx context.Context) (domain.SubscriptionPlan, error) {
		if plan.ID == "" {
			return apiclient.Post[domain.SubscriptionPlan](ctx, s.api, "/subscriptions/plans", plan)
		}
		return apiclient.Put[domain.SubscriptionPlan](ctx, s.api, apiclient.Path("/subscriptions/plans/%s", plan.ID), plan)
	}, SubscriptionPlansKey())
}

func (s *SubscriptionService) DeletePlan(ctx context.Context, id string) error {
	return remove(ctx, s.base, apiclient.Path("/subscriptions/plans/%s", id), SubscriptionPlansKey(), SubscriptionsKey())
}
