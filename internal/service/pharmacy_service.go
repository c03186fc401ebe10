package service

import (
	"context"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/domain"
)

// PharmacyService manages partner pharmacies and their catalogues.
type PharmacyService struct{ base }

func (s *PharmacyService) List(ctx context.Context, params apiclient.Params) (domain.Page[domain.Pharmacy], error) {
	return read[domain.Page[domain.Pharmacy]](ctx, s.base, withParams(PharmaciesKey(), params), "/pharmacies", params)
}

func (s *PharmacyService) Get(ctx context.Context, id string) (domain.Pharmacy, error) {
	return read[domain.Pharmacy](ctx, s.base, PharmacyKey(id), apiclient.Path("/pharmacies/%s", id), nil)
}

func (s *PharmacyService) Products(ctx context.Context, id string, params apiclient.Params) (domain.Page[domain.Product], error) {
	return read[domain.Page[domain.Product]](ctx, s.base, withParams(PharmacyProductsKey(id), params),
		apiclient.Path("/pharmacies/%s/products", id), params)
}

// Approve admits a pharmacy to the marketplace.
func (s *PharmacyService) Approve(ctx context.Context, id string, approved bool) (domain.Pharmacy, error) {
	return write(ctx, s.base, func(ctx context.Context) (domain.Pharmacy, error) {
		return apiclient.Patch[domain.Pharmacy](ctx, s.api, apiclient.Path("/pharmacies/%s/approve", id), map[string]bool{"approved": approved})
	}, PharmacyKey(id), PharmaciesKey(), DashboardStatsKey())
}

func (s *PharmacyService) Delete(ctx context.Context, id string) error {
	return remove(ctx, s.base, apiclient.Path("/pharmacies/%s", id), PharmacyKey(id), PharmaciesKey(), PharmacyProductsKey(id), DashboardStatsKey())
}

// DeleteProduct removes a product from a pharmacy's catalogue.
func (s *PharmacyService) DeleteProduct(ctx context.Context, pharmacyID, productID string) error {
	return remove(ctx, s.base, apiclient.Path("/pharmacies/%s/products/%s", pharmacyID, productID), PharmacyProductsKey(pharmacyID))
}
