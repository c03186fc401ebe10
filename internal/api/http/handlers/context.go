package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clinic-admin/internal/api/dto"
	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/auth"
	"github.com/spec-kit/clinic-admin/internal/service"
	"github.com/spec-kit/clinic-admin/internal/session"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

const sessionKey = "browser_session"

// SetSession binds sess to the request.
func SetSession(c *fiber.Ctx, sess *session.Session) {
	c.Locals(sessionKey, sess)
}

// SessionFromContext returns the request's browser session.
func SessionFromContext(c *fiber.Ctx) (*session.Session, bool) {
	sess, ok := c.Locals(sessionKey).(*session.Session)
	return sess, ok && sess != nil
}

// GuardLookup adapts SessionFromContext for the route guard.
func GuardLookup(c *fiber.Ctx) (auth.Session, bool) {
	sess, ok := SessionFromContext(c)
	if !ok {
		return nil, false
	}
	return sess, true
}

func mustSession(c *fiber.Ctx) (*session.Session, error) {
	sess, ok := SessionFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("no browser session")
	}
	return sess, nil
}

func servicesFor(c *fiber.Ctx, registry *service.Registry) (*service.Services, error) {
	sess, err := mustSession(c)
	if err != nil {
		return nil, err
	}
	return registry.For(sess.Client()), nil
}

// sessionError maps session store errors onto HTTP errors.
func sessionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrAccessDenied):
		return apperrors.NewForbidden(err.Error())
	case errors.Is(err, session.ErrInvalidCredentials):
		return apperrors.NewUnauthorized("invalid password")
	case errors.Is(err, session.ErrNotSignedIn):
		return apperrors.NewUnauthorized(err.Error())
	}
	return err
}

// listParams copies the supported list query params.
func listParams(c *fiber.Ctx) apiclient.Params {
	params := apiclient.Params{}
	for _, name := range dto.ListParams {
		if v := strings.TrimSpace(c.Query(name)); v != "" {
			params[name] = v
		}
	}
	return params
}

func requireParam(c *fiber.Ctx, name string) (string, error) {
	v := strings.TrimSpace(c.Params(name))
	if v == "" {
		return "", apperrors.NewValidationError(name+" is required", nil)
	}
	return v, nil
}

func data(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(fiber.Map{"data": v})
}
