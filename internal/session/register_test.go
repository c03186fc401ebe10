package session

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/clinic-admin/internal/domain"
)

func TestRegisterPath(t *testing.T) {
	path, err := RegisterPath(domain.RolePharmacy)
	require.NoError(t, err)
	assert.Equal(t, "/auth/register/pharmacy", path)

	_, err = RegisterPath(domain.Role("NURSE"))
	assert.Error(t, err)
}

func registerHandler(t *testing.T, seen *map[string]any) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body["path"] = r.URL.Path
		*seen = body

		role := "DOCTOR"
		if r.URL.Path == "/auth/register/admin" {
			role = "ADMIN"
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Registered",
			"data": map[string]any{
				"accessToken": "new-token",
				"user":        map[string]any{"id": "n-1", "email": body["email"], "role": role},
			},
		})
	}
}

func TestRegister_DoctorIsNotPersisted(t *testing.T) {
	var seen map[string]any
	f := newFixture(t, registerHandler(t, &seen))

	res, err := f.session.Register(context.Background(), RegisterInput{
		FullName: "Dr. Ada",
		Email:    "ada@clinic.test",
		Password: "pw",
		Profile:  map[string]any{"specialization": "cardiology"},
	}, domain.RoleDoctor)
	require.NoError(t, err)

	assert.False(t, res.Persisted)
	assert.Equal(t, domain.RoleDoctor, res.User.Role)
	assert.Equal(t, "/auth/register/doctor", seen["path"])
	assert.Equal(t, "cardiology", seen["specialization"])
	assert.Nil(t, f.session.User())
	f.assertNoAliases(t)
}

func TestRegister_AdminSignsIn(t *testing.T) {
	var seen map[string]any
	f := newFixture(t, registerHandler(t, &seen))

	res, err := f.session.Register(context.Background(), RegisterInput{
		FullName: "Root",
		Email:    "root@clinic.test",
		Password: "pw",
	}, domain.RoleAdmin)
	require.NoError(t, err)

	assert.True(t, res.Persisted)
	assert.Equal(t, "new-token", res.Token)
	require.NotNil(t, f.session.User())
	token, ok, err := f.store.Token(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new-token", token)
}
