package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-admin/internal/api/dto"
	"github.com/spec-kit/clinic-admin/internal/api/http/views"
	"github.com/spec-kit/clinic-admin/internal/auth"
	"github.com/spec-kit/clinic-admin/internal/session"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

// AuthPagesHandler serves the sign-in, registration, password and lock
// screen pages.
type AuthPagesHandler struct {
	logger *zap.Logger
}

// NewAuthPagesHandler constructs handler.
func NewAuthPagesHandler(logger *zap.Logger) *AuthPagesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthPagesHandler{logger: logger}
}

func formError(c *fiber.Ctx, name, title string, form map[string]string, err error) error {
	de := apperrors.ToDomainError(sessionError(err))
	return views.RenderPublic(c, de.HTTPStatus, name, views.Page{Title: title, Error: de.Message, Form: form})
}

// LoginPage handles GET /login.
func (h *AuthPagesHandler) LoginPage(c *fiber.Ctx) error {
	if sess, ok := SessionFromContext(c); ok {
		if d := auth.Decide("/", sess.Snapshot(c.UserContext())); d.State == auth.StateAuthenticated {
			return c.Redirect("/", http.StatusSeeOther)
		}
	}
	return views.RenderPublic(c, http.StatusOK, "pages/login", views.Page{Title: "Sign in"})
}

// LoginSubmit handles POST /login.
func (h *AuthPagesHandler) LoginSubmit(c *fiber.Ctx) error {
	var req dto.LoginRequest
	_ = c.BodyParser(&req)
	req.Normalize()
	form := map[string]string{"email": req.Email}
	if req.Email == "" || req.Password == "" {
		return formError(c, "pages/login", "Sign in", form, apperrors.NewValidationError("email and password required", nil))
	}

	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	if _, err := sess.Login(c.UserContext(), req.Email, req.Password); err != nil {
		return formError(c, "pages/login", "Sign in", form, err)
	}
	return c.Redirect("/", http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (h *AuthPagesHandler) RegisterPage(c *fiber.Ctx) error {
	return views.RenderPublic(c, http.StatusOK, "pages/register", views.Page{Title: "Register"})
}

// RegisterSubmit handles POST /register.
func (h *AuthPagesHandler) RegisterSubmit(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	_ = c.BodyParser(&req)
	input := req.Input()
	form := map[string]string{"fullName": input.FullName, "email": input.Email, "phone": input.Phone}
	role := req.RoleOrDefault()
	if input.Email == "" || input.Password == "" || input.FullName == "" || !role.Valid() {
		return formError(c, "pages/register", "Register", form, apperrors.NewValidationError("all fields are required", nil))
	}

	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	res, err := sess.Register(c.UserContext(), input, role)
	if err != nil {
		return formError(c, "pages/register", "Register", form, err)
	}
	if res.Persisted {
		return c.Redirect("/", http.StatusSeeOther)
	}
	notice := "Account created for " + input.Email + "."
	if res.Message != "" {
		notice = res.Message
	}
	return views.RenderPublic(c, http.StatusCreated, "pages/register", views.Page{Title: "Register", Notice: notice})
}

// ForgotPasswordPage handles GET /forgot-password.
func (h *AuthPagesHandler) ForgotPasswordPage(c *fiber.Ctx) error {
	return views.RenderPublic(c, http.StatusOK, "pages/forgot_password", views.Page{Title: "Forgot password"})
}

// ForgotPasswordSubmit handles POST /forgot-password.
func (h *AuthPagesHandler) ForgotPasswordSubmit(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	_ = c.BodyParser(&req)
	form := map[string]string{"email": req.Email}
	if req.Email == "" {
		return formError(c, "pages/forgot_password", "Forgot password", form, apperrors.NewValidationError("email required", nil))
	}
	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	msg, err := sess.ForgotPassword(c.UserContext(), req.Email)
	if err != nil {
		return formError(c, "pages/forgot_password", "Forgot password", form, err)
	}
	if msg == "" {
		msg = "If the address is registered, a reset link is on its way."
	}
	return views.RenderPublic(c, http.StatusOK, "pages/forgot_password", views.Page{Title: "Forgot password", Notice: msg})
}

// ResetPasswordPage handles GET /reset-password?token=...
func (h *AuthPagesHandler) ResetPasswordPage(c *fiber.Ctx) error {
	return views.RenderPublic(c, http.StatusOK, "pages/reset_password", views.Page{
		Title: "Reset password",
		Form:  map[string]string{"token": c.Query("token")},
	})
}

// ResetPasswordSubmit handles POST /reset-password.
func (h *AuthPagesHandler) ResetPasswordSubmit(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	_ = c.BodyParser(&req)
	form := map[string]string{"token": req.Token}
	if req.Token == "" || req.Password == "" {
		return formError(c, "pages/reset_password", "Reset password", form, apperrors.NewValidationError("token and password required", nil))
	}
	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	if _, err := sess.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return formError(c, "pages/reset_password", "Reset password", form, err)
	}
	return views.RenderPublic(c, http.StatusOK, "pages/login", views.Page{Title: "Sign in", Notice: "Password updated. Sign in with the new password."})
}

// LockScreenPage handles GET /lock-screen.
func (h *AuthPagesHandler) LockScreenPage(c *fiber.Ctx) error {
	sess, ok := SessionFromContext(c)
	if !ok || sess.User() == nil {
		return c.Redirect(auth.LoginPath, http.StatusSeeOther)
	}
	return views.RenderPublic(c, http.StatusOK, "pages/lock_screen", views.Page{Title: "Locked", User: sess.User()})
}

// LockScreenSubmit handles POST /lock-screen.
func (h *AuthPagesHandler) LockScreenSubmit(c *fiber.Ctx) error {
	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	var req dto.UnlockRequest
	_ = c.BodyParser(&req)

	if err := sess.Unlock(c.UserContext(), req.Password); err != nil {
		if errors.Is(err, session.ErrNotSignedIn) {
			return c.Redirect(auth.LoginPath, http.StatusSeeOther)
		}
		de := apperrors.ToDomainError(sessionError(err))
		return views.RenderPublic(c, de.HTTPStatus, "pages/lock_screen", views.Page{Title: "Locked", User: sess.User(), Error: de.Message})
	}
	return c.Redirect("/", http.StatusSeeOther)
}

// Lock handles POST /lock.
func (h *AuthPagesHandler) Lock(c *fiber.Ctx) error {
	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	if err := sess.Lock(c.UserContext()); err != nil {
		return c.Redirect(auth.LoginPath, http.StatusSeeOther)
	}
	return c.Redirect(auth.LockScreenPath, http.StatusSeeOther)
}

// Logout handles POST /logout. It always ends on the sign-in page.
func (h *AuthPagesHandler) Logout(c *fiber.Ctx) error {
	if sess, ok := SessionFromContext(c); ok {
		if err := sess.Logout(c.UserContext()); err != nil {
			h.logger.Warn("logout left credentials behind", zap.Error(err))
		}
	}
	return c.Redirect(auth.LoginPath, http.StatusSeeOther)
}
