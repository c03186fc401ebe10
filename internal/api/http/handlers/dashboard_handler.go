package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clinic-admin/internal/service"
)

// DashboardHandler exposes landing page stats and the user directory.
type DashboardHandler struct {
	registry *service.Registry
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(registry *service.Registry) *DashboardHandler {
	return &DashboardHandler{registry: registry}
}

// Stats handles GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	stats, err := svc.Dashboard.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, stats)
}

// Users handles GET /api/users.
func (h *DashboardHandler) Users(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Dashboard.Users(c.UserContext(), listParams(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, page)
}

// User handles GET /api/users/:id.
func (h *DashboardHandler) User(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	user, err := svc.Dashboard.User(c.UserContext(), id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, user)
}
