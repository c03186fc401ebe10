package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-admin/internal/api/http/handlers"
	"github.com/spec-kit/clinic-admin/internal/api/http/views"
	"github.com/spec-kit/clinic-admin/internal/auth"
	"github.com/spec-kit/clinic-admin/internal/config"
	"github.com/spec-kit/clinic-admin/internal/domain"
	"github.com/spec-kit/clinic-admin/internal/observability"
	"github.com/spec-kit/clinic-admin/internal/session"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	AuthAPI      *handlers.AuthHandler
	AuthPages    *handlers.AuthPagesHandler
	Pages        *handlers.PagesHandler
	Appointments *handlers.AppointmentsHandler
	Directory    *handlers.DirectoryHandler
	Commerce     *handlers.CommerceHandler
	Chat         *handlers.ChatHandler
	Dashboard    *handlers.DashboardHandler

	Sessions *session.Manager
	Session  config.SessionConfig
	Limiter  *LoginLimiter
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	throttle := cfg.Limiter.Handler()

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}
	app.Use("/static", filesystem.New(filesystem.Config{Root: views.Static()}))

	app.Use(SessionMiddleware(cfg.Sessions, cfg.Session))
	app.Use(auth.Guard(auth.GuardConfig{
		Lookup:    handlers.GuardLookup,
		Loading:   cfg.Pages.Loading,
		APIPrefix: APIPrefix,
		Logger:    cfg.Logger,
	}))

	app.Get("/login", cfg.AuthPages.LoginPage)
	app.Post("/login", throttle, cfg.AuthPages.LoginSubmit)
	app.Get("/register", cfg.AuthPages.RegisterPage)
	app.Post("/register", cfg.AuthPages.RegisterSubmit)
	app.Get("/forgot-password", cfg.AuthPages.ForgotPasswordPage)
	app.Post("/forgot-password", cfg.AuthPages.ForgotPasswordSubmit)
	app.Get("/reset-password", cfg.AuthPages.ResetPasswordPage)
	app.Post("/reset-password", cfg.AuthPages.ResetPasswordSubmit)
	app.Get("/lock-screen", cfg.AuthPages.LockScreenPage)
	app.Post("/lock-screen", throttle, cfg.AuthPages.LockScreenSubmit)
	app.Post("/logout", cfg.AuthPages.Logout)
	app.Get("/error-404", cfg.Pages.NotFoundPage)
	app.Get("/error-500", cfg.Pages.ServerErrorPage)

	// Registered ahead of the admin group so its role check never runs for them.
	authAPI := app.Group("/api/auth")
	authAPI.Post("/login", throttle, cfg.AuthAPI.Login)
	authAPI.Post("/register/:role?", cfg.AuthAPI.Register)
	authAPI.Post("/logout", cfg.AuthAPI.Logout)
	authAPI.Post("/forgot-password", cfg.AuthAPI.ForgotPassword)
	authAPI.Post("/reset-password", cfg.AuthAPI.ResetPassword)
	authAPI.Post("/lock", cfg.AuthAPI.Lock)
	authAPI.Post("/unlock", throttle, cfg.AuthAPI.Unlock)
	authAPI.Get("/session", cfg.AuthAPI.Session)

	app.Get("/", cfg.Pages.Dashboard)
	app.Get("/appointments", cfg.Pages.Appointments)
	app.Get("/doctors", cfg.Pages.Doctors)
	app.Get("/patients", cfg.Pages.Patients)
	app.Get("/pharmacies", cfg.Pages.Pharmacies)
	app.Get("/orders", cfg.Pages.Orders)
	app.Get("/subscriptions", cfg.Pages.Subscriptions)
	app.Get("/chat", cfg.Pages.Chat)
	app.Post("/lock", cfg.AuthPages.Lock)

	api := app.Group("/api", auth.RequireRole(domain.RoleAdmin))

	api.Get("/dashboard/stats", cfg.Dashboard.Stats)
	api.Get("/users", cfg.Dashboard.Users)
	api.Get("/users/:id", cfg.Dashboard.User)

	api.Get("/appointments", cfg.Appointments.List)
	api.Get("/appointments/:id", cfg.Appointments.Get)
	api.Patch("/appointments/:id/status", cfg.Appointments.UpdateStatus)
	api.Delete("/appointments/:id", cfg.Appointments.Delete)

	api.Get("/doctors", cfg.Directory.ListDoctors)
	api.Get("/doctors/:id", cfg.Directory.GetDoctor)
	api.Get("/doctors/:id/availability", cfg.Directory.DoctorAvailability)
	api.Get("/doctors/:id/appointments", cfg.Appointments.ForDoctor)
	api.Patch("/doctors/:id/verify", cfg.Directory.VerifyDoctor)
	api.Patch("/doctors/:id/status", cfg.Directory.DoctorStatus)
	api.Post("/doctors/:id/avatar", cfg.Directory.DoctorAvatar)
	api.Delete("/doctors/:id", cfg.Directory.DeleteDoctor)

	api.Get("/patients", cfg.Directory.ListPatients)
	api.Get("/patients/:id", cfg.Directory.GetPatient)
	api.Get("/patients/:id/appointments", cfg.Appointments.ForPatient)
	api.Patch("/patients/:id/status", cfg.Directory.PatientStatus)
	api.Delete("/patients/:id", cfg.Directory.DeletePatient)

	api.Get("/pharmacies", cfg.Directory.ListPharmacies)
	api.Get("/pharmacies/:id", cfg.Directory.GetPharmacy)
	api.Get("/pharmacies/:id/products", cfg.Directory.PharmacyProducts)
	api.Patch("/pharmacies/:id/approve", cfg.Directory.ApprovePharmacy)
	api.Delete("/pharmacies/:id", cfg.Directory.DeletePharmacy)
	api.Delete("/pharmacies/:id/products/:productId", cfg.Directory.DeleteProduct)

	api.Get("/orders", cfg.Commerce.ListOrders)
	api.Get("/orders/:id", cfg.Commerce.GetOrder)
	api.Patch("/orders/:id/status", cfg.Commerce.OrderStatus)

	api.Get("/subscriptions", cfg.Commerce.ListSubscriptions)
	api.Get("/subscriptions/plans", cfg.Commerce.ListPlans)
	api.Post("/subscriptions/plans", cfg.Commerce.SavePlan)
	api.Put("/subscriptions/plans/:id", cfg.Commerce.SavePlan)
	api.Delete("/subscriptions/plans/:id", cfg.Commerce.DeletePlan)

	api.Get("/chat/conversations", cfg.Chat.Conversations)
	api.Get("/chat/conversations/:id/messages", cfg.Chat.Messages)
	api.Post("/chat/conversations/:id/messages", cfg.Chat.Send)

	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), APIPrefix) {
			return apperrors.NewNotFound("route", map[string]any{"path": c.Path()})
		}
		return cfg.Pages.NotFound(c)
	})
}
