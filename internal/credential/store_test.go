package credential

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/clinic-admin/internal/repository"
)

func TestStore_SaveTokenClear(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryCredentialRepository()
	store := NewStore(repo, "sid")

	_, ok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "jwt-1"))
	token, ok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "jwt-1", token)

	require.NoError(t, repo.Set(ctx, "sid", LegacyDoctorKey, "stale"))
	require.NoError(t, store.Clear(ctx))

	for _, key := range AllKeys {
		_, err := repo.Get(ctx, "sid", key)
		assert.ErrorIs(t, err, repository.ErrCredentialNotFound, key)
	}
}

func TestStore_Migrate(t *testing.T) {
	t.Run("promotes legacy admin alias", func(t *testing.T) {
		ctx := context.Background()
		repo := repository.NewMemoryCredentialRepository()
		require.NoError(t, repo.Set(ctx, "sid", LegacyAdminKey, "legacy-jwt"))
		require.NoError(t, repo.Set(ctx, "sid", LegacyPatientKey, "patient-jwt"))
		store := NewStore(repo, "sid")

		require.NoError(t, store.Migrate(ctx))

		token, ok, err := store.Token(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "legacy-jwt", token)
		_, err = repo.Get(ctx, "sid", LegacyAdminKey)
		assert.ErrorIs(t, err, repository.ErrCredentialNotFound)
		_, err = repo.Get(ctx, "sid", LegacyPatientKey)
		assert.ErrorIs(t, err, repository.ErrCredentialNotFound)
	})

	t.Run("canonical key wins", func(t *testing.T) {
		ctx := context.Background()
		repo := repository.NewMemoryCredentialRepository()
		require.NoError(t, repo.Set(ctx, "sid", Key, "current"))
		require.NoError(t, repo.Set(ctx, "sid", LegacyAdminKey, "older"))
		store := NewStore(repo, "sid")

		require.NoError(t, store.Migrate(ctx))

		token, _, err := store.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "current", token)
	})

	t.Run("runs only once", func(t *testing.T) {
		ctx := context.Background()
		repo := repository.NewMemoryCredentialRepository()
		store := NewStore(repo, "sid")

		require.NoError(t, store.Migrate(ctx))
		require.NoError(t, repo.Set(ctx, "sid", LegacyAdminKey, "written-later"))
		require.NoError(t, store.Migrate(ctx))

		_, ok, err := store.Token(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("never promotes doctor alias", func(t *testing.T) {
		ctx := context.Background()
		repo := repository.NewMemoryCredentialRepository()
		require.NoError(t, repo.Set(ctx, "sid", LegacyDoctorKey, "doctor-jwt"))
		store := NewStore(repo, "sid")

		require.NoError(t, store.Migrate(ctx))

		_, ok, err := store.Token(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_RebindMovesCredential(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryCredentialRepository()
	store := NewStore(repo, "planted")
	require.NoError(t, store.Save(ctx, "jwt-1"))
	require.NoError(t, store.Migrate(ctx))

	require.NoError(t, store.Rebind(ctx, "minted"))
	assert.Equal(t, "minted", store.SessionID())

	token, ok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "jwt-1", token)

	_, ok, err = NewStore(repo, "planted").Token(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = repo.Get(ctx, "planted", migrationMarkerKey)
	assert.ErrorIs(t, err, repository.ErrCredentialNotFound)
}
