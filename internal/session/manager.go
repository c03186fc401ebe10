package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/credential"
	"github.com/spec-kit/clinic-admin/internal/events"
	"github.com/spec-kit/clinic-admin/internal/observability"
	"github.com/spec-kit/clinic-admin/internal/repository"
)

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	Client      *apiclient.Client
	Credentials repository.CredentialRepository
	Events      events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	IdleTTL     time.Duration
	BcryptCost  int
}

// Manager keeps the live sessions of this process keyed by browser session
// id. Credentials outlive an evicted Session in the repository, so an evicted
// browser is restored by the next CheckAuth.
type Manager struct {
	cfg    ManagerConfig
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewManager builds an empty manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns the session for sid, creating and starting it on first sight.
func (m *Manager) Get(ctx context.Context, sid string) *Session {
	m.mu.Lock()
	sess, ok := m.sessions[sid]
	if !ok {
		sess = New(Deps{
			Client:     m.cfg.Client,
			Store:      credential.NewStore(m.cfg.Credentials, sid),
			Events:     m.cfg.Events,
			Logger:     m.logger,
			BcryptCost: m.cfg.BcryptCost,
		})
		m.sessions[sid] = sess
		m.cfg.Metrics.SetActiveSessions(len(m.sessions))
	}
	m.mu.Unlock()

	if !ok {
		sess.Start(ctx)
	}
	return sess
}

// ErrUnknownSession is returned by Rotate for an id the manager does not hold.
var ErrUnknownSession = errors.New("unknown session")

// Rotate moves the session behind sid, credential included, to a freshly
// minted id and returns it. sid no longer resolves to the session afterwards.
func (m *Manager) Rotate(ctx context.Context, sid string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sid]
	if !ok {
		return "", ErrUnknownSession
	}
	next := uuid.NewString()
	if err := sess.store.Rebind(ctx, next); err != nil {
		return "", err
	}
	delete(m.sessions, sid)
	m.sessions[next] = sess
	m.logger.Debug("session id rotated", zap.String("session", shortID(next)))
	return next, nil
}

// Remove forgets sid.
func (m *Manager) Remove(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sid)
	m.cfg.Metrics.SetActiveSessions(len(m.sessions))
}

// Sweep evicts sessions idle for longer than the configured TTL and returns
// how many were evicted.
func (m *Manager) Sweep() int {
	ttl := m.cfg.IdleTTL
	if ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for sid, sess := range m.sessions {
		if sess.IdleSince().Before(cutoff) {
			delete(m.sessions, sid)
			evicted++
		}
	}
	m.cfg.Metrics.SetActiveSessions(len(m.sessions))
	if evicted > 0 {
		m.logger.Debug("idle sessions evicted", zap.Int("count", evicted), zap.Int("remaining", len(m.sessions)))
	}
	return evicted
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
