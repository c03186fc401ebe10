package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/clinic-admin/internal/repository"
)

// SessionSweeper evicts idle in-memory sessions.
type SessionSweeper interface {
	Sweep() int
}

// SessionWorker periodically evicts idle sessions and, for stores without
// native expiry, purges their stored credentials.
type SessionWorker struct {
	sessions      SessionSweeper
	purger        repository.CredentialPurger
	interval      time.Duration
	credentialTTL time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewSessionWorker builds a worker. purger may be nil.
func NewSessionWorker(sessions SessionSweeper, purger repository.CredentialPurger, interval, credentialTTL time.Duration, logger *zap.Logger) *SessionWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionWorker{
		sessions:      sessions,
		purger:        purger,
		interval:      interval,
		credentialTTL: credentialTTL,
		logger:        logger.Named("session_worker"),
		now:           time.Now,
	}
}

// Start runs the worker until ctx is cancelled. The returned channel closes
// when the loop has exited.
func (w *SessionWorker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.RunOnce(ctx)
			}
		}
	}()
	return done
}

// RunOnce performs a single sweep.
func (w *SessionWorker) RunOnce(ctx context.Context) {
	if w.sessions != nil {
		if n := w.sessions.Sweep(); n > 0 {
			w.logger.Debug("evicted idle sessions", zap.Int("count", n))
		}
	}
	if w.purger == nil || w.credentialTTL <= 0 {
		return
	}
	purged, err := w.purger.PurgeIdle(ctx, w.now().Add(-w.credentialTTL))
	if err != nil {
		w.logger.Warn("purge idle credentials", zap.Error(err))
		return
	}
	if purged > 0 {
		w.logger.Info("purged idle credentials", zap.Int64("rows", purged))
	}
}
