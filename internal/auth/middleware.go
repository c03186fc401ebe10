package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-admin/internal/domain"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// Session is what the guard needs from a browser session.
type Session interface {
	Snapshot(ctx context.Context) Snapshot
	Ready() <-chan struct{}
	ForceLogout(ctx context.Context, reason string) error
}

// SessionLookup returns the session bound to the request.
type SessionLookup func(c *fiber.Ctx) (Session, bool)

// GuardConfig wires the guard middleware.
type GuardConfig struct {
	Lookup SessionLookup
	// Loading renders the placeholder shown while a page request waits for
	// the session check.
	Loading fiber.Handler
	// APIPrefix marks JSON routes: they wait for the session check and get
	// error bodies instead of redirects.
	APIPrefix string
	Logger    *zap.Logger
}

// Guard evaluates Decide on every request.
func Guard(cfg GuardConfig) fiber.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/"
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()
		if IsPublic(path) {
			return c.Next()
		}

		sess, ok := cfg.Lookup(c)
		if !ok {
			return deny(c, cfg, Decision{State: StateUnauthenticated, Redirect: LoginPath})
		}

		ctx := c.UserContext()
		isAPI := strings.HasPrefix(path, cfg.APIPrefix)
		snap := sess.Snapshot(ctx)
		if snap.Loading && isAPI {
			select {
			case <-sess.Ready():
			case <-ctx.Done():
				return ctx.Err()
			}
			snap = sess.Snapshot(ctx)
		}

		decision := Decide(path, snap)
		switch decision.State {
		case StateChecking:
			if cfg.Loading != nil {
				return cfg.Loading(c)
			}
			return c.SendStatus(http.StatusServiceUnavailable)
		case StateAuthenticated:
			c.Locals(identityKey, snap.User)
			return c.Next()
		}

		if decision.ForceLogout {
			reason := strings.ToLower(decision.State.String())
			if err := sess.ForceLogout(ctx, reason); err != nil {
				logger.Warn("forced logout failed", zap.String("reason", reason), zap.Error(err))
			}
		}
		return deny(c, cfg, decision)
	}
}

func deny(c *fiber.Ctx, cfg GuardConfig, d Decision) error {
	if strings.HasPrefix(c.Path(), cfg.APIPrefix) {
		switch d.State {
		case StateLocked:
			return apperrors.NewLocked("session is locked")
		case StateWrongRole:
			return apperrors.NewForbidden("admin access required")
		default:
			return apperrors.NewUnauthorized("sign in required")
		}
	}
	return c.Redirect(d.Redirect, http.StatusSeeOther)
}

// IdentityFromContext returns the admin the guard admitted.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok && identity != nil
}
