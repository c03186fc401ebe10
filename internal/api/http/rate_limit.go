package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/spec-kit/clinic-admin/internal/config"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

const limiterIdle = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter throttles password attempts per client IP.
type LoginLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewLoginLimiter builds a limiter; a non-positive rate disables it.
func NewLoginLimiter(cfg config.RateLimitConfig) *LoginLimiter {
	burst := cfg.LoginBurst
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.LoginPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.LoginPerMinute))
	}
	return &LoginLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether ip may make another attempt.
func (l *LoginLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdle {
			delete(l.visitors, key)
		}
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Handler rejects requests over the limit with 429.
func (l *LoginLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			return apperrors.NewTooManyRequests("too many attempts, try again later")
		}
		return c.Next()
	}
}
