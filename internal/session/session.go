// Package session holds the signed-in admin for one browser session and
// drives login, logout and the startup credential check.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/auth"
	"github.com/spec-kit/clinic-admin/internal/credential"
	"github.com/spec-kit/clinic-admin/internal/domain"
	"github.com/spec-kit/clinic-admin/internal/events"
)

var (
	// ErrAccessDenied is returned when a non-admin account signs in.
	ErrAccessDenied = errors.New("access denied: admin account required")
	// ErrInvalidCredentials is returned when an unlock password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotSignedIn is returned by operations that need a signed-in admin.
	ErrNotSignedIn = errors.New("not signed in")
)

// Deps are the collaborators a Session is built from.
type Deps struct {
	// Client is the unbound API client; the session binds its own credentials.
	Client     *apiclient.Client
	Store      *credential.Store
	Events     events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// Session is one browser session's auth state. Safe for concurrent use.
type Session struct {
	store      *credential.Store
	api        *apiclient.Client
	anon       *apiclient.Client
	events     events.Dispatcher
	logger     *zap.Logger
	bcryptCost int

	mu         sync.RWMutex
	user       *domain.Identity
	loading    bool
	locked     bool
	unlockHash string
	lastSeen   time.Time
	// epoch moves on every explicit sign-in or sign-out so a slower
	// CheckAuth cannot overwrite the newer state.
	epoch uint64
	// signIns counts password checks that succeeded in this session.
	signIns uint64

	ready     chan struct{}
	readyOnce sync.Once
	startOnce sync.Once
}

// New builds a session in the loading state; call Start or CheckAuth to
// resolve it.
func New(d Deps) *Session {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		store:      d.Store,
		api:        d.Client.WithCredentials(d.Store),
		anon:       d.Client,
		events:     d.Events,
		logger:     logger.With(zap.String("session", shortID(d.Store.SessionID()))),
		bcryptCost: d.BcryptCost,
		loading:    true,
		lastSeen:   time.Now(),
		ready:      make(chan struct{}),
	}
}

// ID returns the browser session id.
func (s *Session) ID() string {
	return s.store.SessionID()
}

// Client returns the API client authenticated as this session.
func (s *Session) Client() *apiclient.Client {
	return s.api
}

// Start runs CheckAuth in the background once.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx := context.WithoutCancel(ctx)
		go func() {
			if err := s.CheckAuth(ctx); err != nil {
				s.logger.Warn("session check failed", zap.Error(err))
			}
		}()
	})
}

// Ready is closed once the first credential check has finished.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// CheckAuth migrates legacy credentials, then loads the profile behind the
// stored credential. Any credential that does not resolve to an admin is
// dropped. loading is false when CheckAuth returns.
func (s *Session) CheckAuth(ctx context.Context) error {
	defer s.finishLoading()
	epoch := s.currentEpoch()

	if err := s.store.Migrate(ctx); err != nil {
		s.logger.Warn("credential migration failed", zap.Error(err))
	}

	token, ok, err := s.store.Token(ctx)
	if err != nil {
		s.settle(epoch, nil)
		return err
	}
	if !ok {
		s.settle(epoch, nil)
		return nil
	}

	id, err := auth.SubjectID(token)
	if err != nil {
		s.dropIfCurrent(ctx, epoch, "malformed credential", nil)
		return nil
	}

	user, err := apiclient.Get[domain.Identity](ctx, s.api, apiclient.Path("/users/%s", id))
	if err != nil {
		s.logger.Info("profile fetch failed", zap.String("user_id", id), zap.Error(err))
		s.dropIfCurrent(ctx, epoch, "profile unavailable", nil)
		return nil
	}
	if !user.IsAdmin() {
		s.dropIfCurrent(ctx, epoch, "wrong role", &user)
		return nil
	}

	s.settle(epoch, &user)
	return nil
}

// LoginResult is what a successful sign-in returns.
type LoginResult struct {
	Token   string           `json:"token"`
	User    *domain.Identity `json:"user"`
	Message string           `json:"message,omitempty"`
}

type authPayload struct {
	Token       string           `json:"token"`
	AccessToken string           `json:"accessToken"`
	User        *domain.Identity `json:"user"`
}

func (p authPayload) credential() string {
	if p.Token != "" {
		return p.Token
	}
	return p.AccessToken
}

// Login signs in through the shared login endpoint. Non-admin accounts get
// ErrAccessDenied and nothing is stored.
func (s *Session) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := s.anon.Do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	payload, err := apiclient.Decode[authPayload](resp.Envelope)
	if err != nil {
		return nil, err
	}
	if payload.credential() == "" || payload.User == nil {
		return nil, apiclient.ErrMalformedResponse
	}
	if !payload.User.IsAdmin() {
		s.publish(ctx, events.EventAccessDenied, payload.User, events.AccessDeniedPayload{Email: email, Role: payload.User.Role})
		return nil, ErrAccessDenied
	}

	if err := s.signIn(ctx, payload, password); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventLoggedIn, payload.User, nil)
	return &LoginResult{Token: payload.credential(), User: payload.User, Message: resp.Envelope.Message}, nil
}

func (s *Session) signIn(ctx context.Context, payload authPayload, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, payload.credential()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = payload.User
	s.locked = false
	s.unlockHash = hash
	s.lastSeen = time.Now()
	s.epoch++
	s.signIns++
	return nil
}

// Logout ends the session. The server-side logout is best effort; local
// state is cleared regardless.
func (s *Session) Logout(ctx context.Context) error {
	user := s.User()
	if _, ok, _ := s.store.Token(ctx); ok {
		if _, err := s.api.Do(ctx, http.MethodPost, "/auth/logout", nil); err != nil {
			s.logger.Info("server logout failed", zap.Error(err))
		}
	}

	err := s.store.Clear(ctx)
	s.reset()
	s.publish(ctx, events.EventLoggedOut, user, nil)
	return err
}

// ForceLogout drops the credential without calling the API.
func (s *Session) ForceLogout(ctx context.Context, reason string) error {
	return s.drop(ctx, reason, s.User())
}

func (s *Session) drop(ctx context.Context, reason string, user *domain.Identity) error {
	err := s.store.Clear(ctx)
	s.reset()
	s.publish(ctx, events.EventForcedLogout, user, events.ForcedLogoutPayload{Reason: reason})
	return err
}

// ForgotPassword asks the API to send a reset link.
func (s *Session) ForgotPassword(ctx context.Context, email string) (string, error) {
	resp, err := s.anon.Do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return resp.Envelope.Message, nil
}

// ResetPassword sets a new password using a reset token.
func (s *Session) ResetPassword(ctx context.Context, token, password string) (string, error) {
	resp, err := s.anon.Do(ctx, http.MethodPost, "/auth/reset-password", map[string]string{
		"token":    token,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	return resp.Envelope.Message, nil
}

// Lock hides the dashboard behind the lock screen until Unlock.
func (s *Session) Lock(ctx context.Context) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotSignedIn
	}
	s.locked = true
	user := s.user
	s.mu.Unlock()

	s.publish(ctx, events.EventLocked, user, nil)
	return nil
}

// Unlock checks password against the one used to sign in. Sessions restored
// from a stored credential have no captured password, so the API verifies it.
func (s *Session) Unlock(ctx context.Context, password string) error {
	s.mu.RLock()
	user, hash := s.user, s.unlockHash
	s.mu.RUnlock()
	if user == nil {
		return ErrNotSignedIn
	}

	if hash != "" {
		if err := auth.ComparePassword(hash, password); err != nil {
			if errors.Is(err, auth.ErrPasswordMismatch) {
				return ErrInvalidCredentials
			}
			return err
		}
	} else if _, err := s.Login(ctx, user.Email, password); err != nil {
		if apiclient.IsUnauthorized(err) || apiclient.IsStatus(err, http.StatusBadRequest) {
			return ErrInvalidCredentials
		}
		return err
	}

	s.mu.Lock()
	s.locked = false
	s.signIns++
	s.mu.Unlock()
	s.publish(ctx, events.EventUnlocked, user, nil)
	return nil
}

// User returns the signed-in admin, or nil.
func (s *Session) User() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading reports whether the startup check is still running.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Snapshot reads the state the route guard decides on.
func (s *Session) Snapshot(ctx context.Context) auth.Snapshot {
	s.mu.Lock()
	s.lastSeen = time.Now()
	snap := auth.Snapshot{Loading: s.loading, Locked: s.locked, User: s.user}
	s.mu.Unlock()

	if !snap.Loading {
		_, ok, err := s.store.Token(ctx)
		snap.HasCredential = ok && err == nil
	}
	return snap
}

// SignIns returns how many times a password was accepted in this session,
// by login, registration or unlock.
func (s *Session) SignIns() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signIns
}

// IdleSince returns when the session was last consulted.
func (s *Session) IdleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *Session) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// settle records the CheckAuth outcome unless a sign-in or sign-out
// happened since epoch.
func (s *Session) settle(epoch uint64, user *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		s.user = user
	}
}

func (s *Session) dropIfCurrent(ctx context.Context, epoch uint64, reason string, user *domain.Identity) {
	if s.currentEpoch() != epoch {
		return
	}
	if err := s.drop(ctx, reason, user); err != nil {
		s.logger.Warn("clear credential failed", zap.String("reason", reason), zap.Error(err))
	}
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.locked = false
	s.unlockHash = ""
	s.epoch++
}

func (s *Session) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Session) publish(ctx context.Context, typ events.EventType, user *domain.Identity, payload any) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, events.Event{
		Type:      typ,
		SessionID: s.ID(),
		Actor:     events.ActorFrom(user),
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("publish event failed", zap.String("type", string(typ)), zap.Error(err))
	}
}

func shortID(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}
