package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/clinic-admin/internal/api/http/handlers"
	"github.com/spec-kit/clinic-admin/internal/config"
	"github.com/spec-kit/clinic-admin/internal/session"
)

// SessionMiddleware binds every request to a browser session keyed by a
// random cookie. Unknown or malformed cookies get a fresh id, and the id is
// replaced whenever the request signs the session in.
func SessionMiddleware(manager *session.Manager, cfg config.SessionConfig) fiber.Handler {
	name := cfg.CookieName
	if name == "" {
		name = "clinic_admin_sid"
	}
	setCookie := func(c *fiber.Ctx, sid string) {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    sid,
			Path:     "/",
			Expires:  time.Now().Add(cfg.CredentialTTL()),
			HTTPOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	return func(c *fiber.Ctx) error {
		sid := c.Cookies(name)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
		}
		setCookie(c, sid)

		sess := manager.Get(c.UserContext(), sid)
		handlers.SetSession(c, sess)
		signIns := sess.SignIns()

		err := c.Next()
		if sess.SignIns() == signIns {
			return err
		}

		next, rerr := manager.Rotate(c.UserContext(), sess.ID())
		if rerr != nil {
			if lerr := sess.ForceLogout(c.UserContext(), "session rotation failed"); lerr != nil {
				return fmt.Errorf("rotate session: %w (logout: %v)", rerr, lerr)
			}
			return fmt.Errorf("rotate session: %w", rerr)
		}
		setCookie(c, next)
		return err
	}
}
