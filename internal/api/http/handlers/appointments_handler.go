package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clinic-admin/internal/api/dto"
	"github.com/spec-kit/clinic-admin/internal/service"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

// AppointmentsHandler exposes appointment management.
type AppointmentsHandler struct {
	registry *service.Registry
}

// NewAppointmentsHandler constructs handler.
func NewAppointmentsHandler(registry *service.Registry) *AppointmentsHandler {
	return &AppointmentsHandler{registry: registry}
}

// List handles GET /api/appointments.
func (h *AppointmentsHandler) List(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Appointments.List(c.UserContext(), listParams(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, page)
}

// Get handles GET /api/appointments/:id.
func (h *AppointmentsHandler) Get(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	appt, err := svc.Appointments.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, appt)
}

// ForDoctor handles GET /api/doctors/:id/appointments.
func (h *AppointmentsHandler) ForDoctor(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	appts, err := svc.Appointments.ForDoctor(c.UserContext(), id, listParams(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, appts)
}

// ForPatient handles GET /api/patients/:id/appointments.
func (h *AppointmentsHandler) ForPatient(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	appts, err := svc.Appointments.ForPatient(c.UserContext(), id, listParams(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, appts)
}

// UpdateStatus handles PATCH /api/appointments/:id/status.
func (h *AppointmentsHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.AppointmentStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	appt, err := svc.Appointments.SetStatus(c.UserContext(), id, req.Status, req.Reason)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, appt)
}

// Delete handles DELETE /api/appointments/:id.
func (h *AppointmentsHandler) Delete(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	// The doctor and patient are needed to invalidate their lists.
	appt, err := svc.Appointments.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if err := svc.Appointments.Delete(c.UserContext(), appt); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
