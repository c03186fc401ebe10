// Package credential binds the per-session credential repository to the
// canonical key layout used by the API client and the session store.
package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spec-kit/clinic-admin/internal/repository"
)

// Storage keys. Key is authoritative; the others are legacy aliases written
// by older clients and only read during Migrate.
const (
	Key                = "token"
	LegacyAdminKey     = "adminToken"
	LegacyDoctorKey    = "doctorToken"
	LegacyPatientKey   = "patientToken"
	migrationMarkerKey = "migrated"
)

// AllKeys lists every key a credential may have been stored under.
var AllKeys = []string{Key, LegacyAdminKey, LegacyDoctorKey, LegacyPatientKey}

// Store is one browser session's view of the credential repository.
type Store struct {
	repo repository.CredentialRepository

	mu        sync.RWMutex
	sessionID string
}

// NewStore binds repo to sessionID.
func NewStore(repo repository.CredentialRepository, sessionID string) *Store {
	return &Store{repo: repo, sessionID: sessionID}
}

// SessionID returns the bound browser session id.
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Token returns the stored credential; ok is false when none is stored.
func (s *Store) Token(ctx context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token(ctx)
}

func (s *Store) token(ctx context.Context) (string, bool, error) {
	token, err := s.repo.Get(ctx, s.sessionID, Key)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read credential: %w", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Save persists token under the canonical key.
func (s *Store) Save(ctx context.Context, token string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.save(ctx, token)
}

func (s *Store) save(ctx context.Context, token string) error {
	if err := s.repo.Set(ctx, s.sessionID, Key, token); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// Clear removes the credential under every key, legacy aliases included.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.repo.Delete(ctx, s.sessionID, AllKeys...); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// Migrate runs once per session. If only the legacy admin alias holds a
// credential it is copied to the canonical key; all legacy aliases are then
// removed. Doctor and patient aliases are never promoted.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.repo.Get(ctx, s.sessionID, migrationMarkerKey); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrCredentialNotFound) {
		return fmt.Errorf("read migration marker: %w", err)
	}

	if _, ok, err := s.token(ctx); err != nil {
		return err
	} else if !ok {
		legacy, err := s.repo.Get(ctx, s.sessionID, LegacyAdminKey)
		switch {
		case err == nil && legacy != "":
			if err := s.save(ctx, legacy); err != nil {
				return err
			}
		case err != nil && !errors.Is(err, repository.ErrCredentialNotFound):
			return fmt.Errorf("read legacy credential: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, s.sessionID, LegacyAdminKey, LegacyDoctorKey, LegacyPatientKey); err != nil {
		return fmt.Errorf("remove legacy credentials: %w", err)
	}
	return s.repo.Set(ctx, s.sessionID, migrationMarkerKey, "1")
}

// Rebind moves everything stored for the current session id to sessionID
// and binds the store to it. On failure the store keeps its old id and
// nothing is left behind under the new one.
func (s *Store) Rebind(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.sessionID
	keys := append([]string{migrationMarkerKey}, AllKeys...)
	for _, key := range keys {
		value, err := s.repo.Get(ctx, old, key)
		if errors.Is(err, repository.ErrCredentialNotFound) {
			continue
		}
		if err == nil {
			err = s.repo.Set(ctx, sessionID, key, value)
		}
		if err != nil {
			return errors.Join(fmt.Errorf("move credential %s: %w", key, err), s.repo.Delete(ctx, sessionID, keys...))
		}
	}
	if err := s.repo.Delete(ctx, old, keys...); err != nil {
		return errors.Join(fmt.Errorf("release old session: %w", err), s.repo.Delete(ctx, sessionID, keys...))
	}
	s.sessionID = sessionID
	return nil
}
