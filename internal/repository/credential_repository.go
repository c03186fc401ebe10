package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCredentialNotFound is returned when no value is stored under a key.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialRepository persists credential strings per browser session.
// It plays the role local storage plays for a browser client: a small
// string map namespaced by session.
type CredentialRepository interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID string, keys ...string) error
}

// CredentialPurger is implemented by backends without native expiry.
type CredentialPurger interface {
	PurgeIdle(ctx context.Context, before time.Time) (int64, error)
}

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository returns a Postgres-backed implementation.
func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) Get(ctx context.Context, sessionID, key string) (string, error) {
	const query = `
        SELECT value FROM session_credentials
        WHERE session_id=$1 AND key=$2`

	var value string
	if err := r.pool.QueryRow(ctx, query, sessionID, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrCredentialNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *credentialRepository) Set(ctx context.Context, sessionID, key, value string) error {
	const query = `
        INSERT INTO session_credentials (session_id, key, value)
        VALUES ($1, $2, $3)
        ON CONFLICT (session_id, key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`

	_, err := r.pool.Exec(ctx, query, sessionID, key, value)
	return err
}

func (r *credentialRepository) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const query = `
        DELETE FROM session_credentials
        WHERE session_id=$1 AND key = ANY($2)`

	_, err := r.pool.Exec(ctx, query, sessionID, keys)
	return err
}

// PurgeIdle deletes every session whose credentials were last written before
// the cutoff.
func (r *credentialRepository) PurgeIdle(ctx context.Context, before time.Time) (int64, error) {
	const query = `
        DELETE FROM session_credentials
        WHERE session_id IN (
            SELECT session_id FROM session_credentials
            GROUP BY session_id
            HAVING MAX(updated_at) < $1
        )`

	tag, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type memoryCredentialRepository struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

// NewMemoryCredentialRepository returns a process-local implementation.
func NewMemoryCredentialRepository() CredentialRepository {
	return &memoryCredentialRepository{values: make(map[string]map[string]string)}
}

func (r *memoryCredentialRepository) Get(_ context.Context, sessionID, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[sessionID][key]
	if !ok {
		return "", ErrCredentialNotFound
	}
	return value, nil
}

func (r *memoryCredentialRepository) Set(_ context.Context, sessionID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.values[sessionID]
	if !ok {
		bucket = make(map[string]string)
		r.values[sessionID] = bucket
	}
	bucket[key] = value
	return nil
}

func (r *memoryCredentialRepository) Delete(_ context.Context, sessionID string, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.values[sessionID]
	if !ok {
		return nil
	}
	for _, key := range keys {
		delete(bucket, key)
	}
	if len(bucket) == 0 {
		delete(r.values, sessionID)
	}
	return nil
}
