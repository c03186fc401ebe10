package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-admin/internal/api/dto"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

// AuthHandler exposes the session store as JSON endpoints.
type AuthHandler struct {
	logger *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{logger: logger}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	req.Normalize()
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	res, err := sess.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": res.User, "token": res.Token}, "message": res.Message})
}

// Register handles POST /api/auth/register/:role.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if role := c.Params("role"); role != "" {
		req.Role = role
	}
	input := req.Input()
	if input.Email == "" || input.Password == "" || input.FullName == "" {
		return apperrors.NewValidationError("fullName, email, password required", nil)
	}
	role := req.RoleOrDefault()
	if !role.Valid() {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": req.Role})
	}

	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	res, err := sess.Register(c.UserContext(), input, role)
	if err != nil {
		return sessionError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": res, "message": res.Message})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	if err := sess.Logout(c.UserContext()); err != nil {
		h.logger.Warn("logout left credentials behind", zap.Error(err))
	}
	return c.SendStatus(http.StatusNoContent)
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	msg, err := sess.ForgotPassword(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"message": msg})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" || req.Password == "" {
		return apperrors.NewValidationError("token and password required", nil)
	}
	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	msg, err := sess.ResetPassword(c.UserContext(), req.Token, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": msg})
}

// Lock handles POST /api/auth/lock.
func (h *AuthHandler) Lock(c *fiber.Ctx) error {
	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	if err := sess.Lock(c.UserContext()); err != nil {
		return sessionError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Unlock handles POST /api/auth/unlock.
func (h *AuthHandler) Unlock(c *fiber.Ctx) error {
	var req dto.UnlockRequest
	if err := c.BodyParser(&req); err != nil || req.Password == "" {
		return apperrors.NewValidationError("password required", nil)
	}
	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	if err := sess.Unlock(c.UserContext(), req.Password); err != nil {
		return sessionError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	sess, err := mustSession(c)
	if err != nil {
		return err
	}
	snap := sess.Snapshot(c.UserContext())
	return data(c, http.StatusOK, dto.SessionResponse{
		Loading:       snap.Loading,
		Locked:        snap.Locked,
		Authenticated: snap.HasCredential && snap.User.IsAdmin(),
		User:          snap.User,
	})
}

