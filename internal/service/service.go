// Package service reads and writes platform resources on behalf of the
// signed-in admin. Reads go through the shared query cache; writes declare
// the keys they make stale.
package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/query"
)

// Registry holds what every per-request service set shares.
type Registry struct {
	cache  *query.Cache
	logger *zap.Logger
}

// NewRegistry creates a registry over cache.
func NewRegistry(cache *query.Cache, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{cache: cache, logger: logger}
}

// Cache returns the shared query cache.
func (r *Registry) Cache() *query.Cache {
	return r.cache
}

// Services is the set of domain services bound to one session's client.
type Services struct {
	Appointments  *AppointmentService
	Doctors       *DoctorService
	Patients      *PatientService
	Pharmacies    *PharmacyService
	Orders        *OrderService
	Subscriptions *SubscriptionService
	Chat          *ChatService
	Dashboard     *DashboardService
}

// For binds the services to api.
func (r *Registry) For(api *apiclient.Client) *Services {
	b := base{api: api, cache: r.cache, logger: r.logger}
	return &Services{
		Appointments:  &AppointmentService{b},
		Doctors:       &DoctorService{b},
		Patients:      &PatientService{b},
		Pharmacies:    &PharmacyService{b},
		Orders:        &OrderService{b},
		Subscriptions: &SubscriptionService{b},
		Chat:          &ChatService{b},
		Dashboard:     &DashboardService{b},
	}
}

type base struct {
	api    *apiclient.Client
	cache  *query.Cache
	logger *zap.Logger
}

func read[T any](ctx context.Context, b base, key query.Key, path string, params apiclient.Params) (T, error) {
	return query.Fetch(ctx, b.cache, key, func(ctx context.Context) (T, error) {
		return apiclient.GetWithParams[T](ctx, b.api, path, params)
	})
}

func write[T any](ctx context.Context, b base, fn func(ctx context.Context) (T, error), keys ...query.Key) (T, error) {
	return query.Mutate(ctx, b.cache, fn, keys...)
}

// remove issues a DELETE; whatever payload comes back is ignored.
func remove(ctx context.Context, b base, path string, keys ...query.Key) error {
	_, err := write(ctx, b, func(ctx context.Context) (json.RawMessage, error) {
		return apiclient.Delete[json.RawMessage](ctx, b.api, path)
	}, keys...)
	return err
}
