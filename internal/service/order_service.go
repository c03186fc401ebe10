package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/domain"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

// OrderService manages medicine orders.
type OrderService struct{ base }

func (s *OrderService) List(ctx context.Context, params apiclient.Params) (domain.Page[domain.Order], error) {
	return read[domain.Page[domain.Order]](ctx, s.base, withParams(OrdersKey(), params), "/orders", params)
}

func (s *OrderService) Get(ctx context.Context, id string) (domain.Order, error) {
	return read[domain.Order](ctx, s.base, OrderKey(id), apiclient.Path("/orders/%s", id), nil)
}

// SetStatus advances an order's fulfilment state.
func (s *OrderService) SetStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, apperrors.NewValidationError(fmt.Sprintf("unknown order status %q", status), nil)
	}
	return write(ctx, s.base, func(ctx context.Context) (domain.Order, error) {
		return apiclient.Patch[domain.Order](ctx, s.api, apiclient.Path("/orders/%s/status", id), map[string]domain.OrderStatus{"status": status})
	}, OrderKey(id), OrdersKey(), DashboardStatsKey())
}
