package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clinic-admin/internal/api/dto"
	"github.com/spec-kit/clinic-admin/internal/domain"
	"github.com/spec-kit/clinic-admin/internal/service"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

// CommerceHandler exposes orders and subscription plans.
type CommerceHandler struct {
	registry *service.Registry
}

// NewCommerceHandler constructs handler.
func NewCommerceHandler(registry *service.Registry) *CommerceHandler {
	return &CommerceHandler{registry: registry}
}

// ListOrders handles GET /api/orders.
func (h *CommerceHandler) ListOrders(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Orders.List(c.UserContext(), listParams(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, page)
}

// GetOrder handles GET /api/orders/:id.
func (h *CommerceHandler) GetOrder(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	order, err := svc.Orders.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, order)
}

// OrderStatus handles PATCH /api/orders/:id/status.
func (h *CommerceHandler) OrderStatus(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.OrderStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	order, err := svc.Orders.SetStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, order)
}

// ListPlans handles GET /api/subscriptions/plans.
func (h *CommerceHandler) ListPlans(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	plans, err := svc.Subscriptions.Plans(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, plans)
}

// SavePlan handles POST /api/subscriptions/plans and PUT /api/subscriptions/plans/:id.
func (h *CommerceHandler) SavePlan(c *fiber.Ctx) error {
	var plan domain.SubscriptionPlan
	if err := c.BodyParser(&plan); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	plan.ID = c.Params("id")
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	saved, err := svc.Subscriptions.SavePlan(c.UserContext(), plan)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if plan.ID == "" {
		status = http.StatusCreated
	}
	return data(c, status, saved)
}

// DeletePlan handles DELETE /api/subscriptions/plans/:id.
func (h *CommerceHandler) DeletePlan(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	if err := svc.Subscriptions.DeletePlan(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListSubscriptions handles GET /api/subscriptions.
func (h *CommerceHandler) ListSubscriptions(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Subscriptions.List(c.UserContext(), listParams(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, page)
}
