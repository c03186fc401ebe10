package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-admin/internal/api/http/views"
	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/auth"
	"github.com/spec-kit/clinic-admin/internal/domain"
	"github.com/spec-kit/clinic-admin/internal/service"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

// PagesHandler renders the dashboard sections inside the shell.
type PagesHandler struct {
	registry *service.Registry
	logger   *zap.Logger
}

// NewPagesHandler constructs handler.
func NewPagesHandler(registry *service.Registry, logger *zap.Logger) *PagesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PagesHandler{registry: registry, logger: logger}
}

func (h *PagesHandler) shell(c *fiber.Ctx, title string, body any, err error) error {
	user, _ := auth.IdentityFromContext(c)
	page := views.Page{Title: title, User: user, Data: body}
	status := http.StatusOK
	if apiclient.IsUnauthorized(err) {
		return c.Redirect(auth.LoginPath, http.StatusSeeOther)
	}
	if err != nil {
		de := apperrors.ToDomainError(err)
		if de.HTTPStatus >= http.StatusInternalServerError {
			h.logger.Warn("page data unavailable", zap.String("path", c.Path()), zap.Error(err))
		}
		page.Error = de.Message
		page.Data = nil
		status = de.HTTPStatus
	}
	name := "pages/table"
	if _, ok := body.(domain.DashboardStats); ok {
		name = "pages/dashboard"
	}
	return views.RenderShell(c, status, name, page)
}

// Dashboard handles GET /.
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	stats, err := svc.Dashboard.Stats(c.UserContext())
	return h.shell(c, "Dashboard", stats, err)
}

// Appointments handles GET /appointments.
func (h *PagesHandler) Appointments(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Appointments.List(c.UserContext(), listParams(c))
	table := views.Table{Columns: []string{"When", "Doctor", "Patient", "Status"}, Total: page.Total, Page: page.Page, Empty: "No appointments."}
	for _, a := range page.Items {
		table.Rows = append(table.Rows, []string{formatTime(a), orID(a.DoctorName, a.DoctorID), orID(a.PatientName, a.PatientID), string(a.Status)})
	}
	return h.shell(c, "Appointments", table, err)
}

// Doctors handles GET /doctors.
func (h *PagesHandler) Doctors(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Doctors.List(c.UserContext(), listParams(c))
	table := views.Table{Columns: []string{"Name", "Email", "Specialization", "Verified"}, Total: page.Total, Page: page.Page, Empty: "No doctors."}
	for _, d := range page.Items {
		table.Rows = append(table.Rows, []string{d.FullName, d.Email, d.Specialization, yesNo(d.Verified)})
	}
	return h.shell(c, "Doctors", table, err)
}

// Patients handles GET /patients.
func (h *PagesHandler) Patients(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Patients.List(c.UserContext(), listParams(c))
	table := views.Table{Columns: []string{"Name", "Email", "Phone", "Status"}, Total: page.Total, Page: page.Page, Empty: "No patients."}
	for _, p := range page.Items {
		table.Rows = append(table.Rows, []string{p.FullName, p.Email, p.Phone, string(p.Status)})
	}
	return h.shell(c, "Patients", table, err)
}

// Pharmacies handles GET /pharmacies.
func (h *PagesHandler) Pharmacies(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Pharmacies.List(c.UserContext(), listParams(c))
	table := views.Table{Columns: []string{"Name", "Email", "License", "Approved"}, Total: page.Total, Page: page.Page, Empty: "No pharmacies."}
	for _, p := range page.Items {
		table.Rows = append(table.Rows, []string{p.Name, p.Email, p.License, yesNo(p.Approved)})
	}
	return h.shell(c, "Pharmacies", table, err)
}

// Orders handles GET /orders.
func (h *PagesHandler) Orders(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	page, err := svc.Orders.List(c.UserContext(), listParams(c))
	table := views.Table{Columns: []string{"Order", "Patient", "Items", "Total", "Status"}, Total: page.Total, Page: page.Page, Empty: "No orders."}
	for _, o := range page.Items {
		table.Rows = append(table.Rows, []string{o.ID, o.PatientID, strconv.Itoa(len(o.Items)), fmt.Sprintf("%.2f", o.Total), string(o.Status)})
	}
	return h.shell(c, "Orders", table, err)
}

// Subscriptions handles GET /subscriptions.
func (h *PagesHandler) Subscriptions(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	plans, err := svc.Subscriptions.Plans(c.UserContext())
	table := views.Table{Columns: []string{"Plan", "Price", "Days", "Active"}, Total: len(plans), Empty: "No plans."}
	for _, p := range plans {
		table.Rows = append(table.Rows, []string{p.Name, fmt.Sprintf("%.2f", p.Price), strconv.Itoa(p.DurationDays), yesNo(p.Active)})
	}
	return h.shell(c, "Subscriptions", table, err)
}

// Chat handles GET /chat.
func (h *PagesHandler) Chat(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	convs, err := svc.Chat.Conversations(c.UserContext())
	table := views.Table{Columns: []string{"Participants", "Last message", "Unread"}, Total: len(convs), Empty: "No conversations."}
	for _, conv := range convs {
		table.Rows = append(table.Rows, []string{strings.Join(conv.Participants, ", "), conv.LastMessage, strconv.Itoa(conv.UnreadCount)})
	}
	return h.shell(c, "Chat", table, err)
}

// NotFound renders the 404 page inside the shell.
func (h *PagesHandler) NotFound(c *fiber.Ctx) error {
	user, _ := auth.IdentityFromContext(c)
	return views.RenderShell(c, http.StatusNotFound, "pages/not_found", views.Page{Title: "Not found", User: user})
}

// NotFoundPage handles GET /error-404.
func (h *PagesHandler) NotFoundPage(c *fiber.Ctx) error {
	return views.RenderPublic(c, http.StatusNotFound, "pages/not_found", views.Page{Title: "Not found"})
}

// ServerErrorPage handles GET /error-500.
func (h *PagesHandler) ServerErrorPage(c *fiber.Ctx) error {
	return views.RenderPublic(c, http.StatusInternalServerError, "pages/error", views.Page{Title: "Error"})
}

// Loading renders the placeholder shown while the session check runs.
func (h *PagesHandler) Loading(c *fiber.Ctx) error {
	c.Set("Refresh", "1")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return views.RenderPublic(c, http.StatusOK, "pages/loading", views.Page{Title: "Loading"})
}

func formatTime(a domain.Appointment) string {
	if a.ScheduledAt.IsZero() {
		return "-"
	}
	return a.ScheduledAt.Format("2006-01-02 15:04")
}

func orID(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
