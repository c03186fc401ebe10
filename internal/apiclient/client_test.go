package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/clinic-admin/internal/config"
	"github.com/spec-kit/clinic-admin/internal/credential"
	"github.com/spec-kit/clinic-admin/internal/repository"
)

type fixture struct {
	server *httptest.Server
	repo   repository.CredentialRepository
	store  *credential.Store
	client *Client
}

func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	repo := repository.NewMemoryCredentialRepository()
	store := credential.NewStore(repo, "sid-1")
	client := New(config.APIConfig{BaseURL: server.URL, TimeoutSeconds: 5}, nil, nil).WithCredentials(store)

	return &fixture{server: server, repo: repo, store: store, client: client}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fixture) seedAllAliases(t *testing.T, token string) {
	t.Helper()
	ctx := context.Background()
	for _, key := range credential.AllKeys {
		require.NoError(t, f.repo.Set(ctx, "sid-1", key, token))
	}
}

func (f *fixture) assertNoAliases(t *testing.T) {
	t.Helper()
	for _, key := range credential.AllKeys {
		_, err := f.repo.Get(context.Background(), "sid-1", key)
		assert.ErrorIs(t, err, repository.ErrCredentialNotFound, key)
	}
}

func TestClient_NoCredentialSendsNoAuthorization(t *testing.T) {
	var header atomic.Value
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []string{}})
	}))

	_, err := f.client.Do(context.Background(), http.MethodGet, "/doctors", nil)
	require.NoError(t, err)
	assert.Equal(t, "", header.Load())
}

func TestClient_AttachesBearer(t *testing.T) {
	var header atomic.Value
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{"id": "D1"}})
	}))
	require.NoError(t, f.store.Save(context.Background(), "jwt-1"))

	_, err := f.client.Do(context.Background(), http.MethodGet, "/doctors/D1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer jwt-1", header.Load())
}

func TestClient_RefreshesOnceAndRetries(t *testing.T) {
	var refreshCalls, dataCalls int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RefreshPath:
			atomic.AddInt32(&refreshCalls, 1)
			assert.Equal(t, "Bearer old", r.Header.Get("Authorization"))
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "old", body["token"])
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{"token": "new"}})
		case "/appointments":
			atomic.AddInt32(&dataCalls, 1)
			if r.Header.Get("Authorization") != "Bearer new" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "jwt expired"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]string{{"id": "A1"}}})
		}
	}))
	require.NoError(t, f.store.Save(context.Background(), "old"))

	resp, err := f.client.Do(context.Background(), http.MethodGet, "/appointments", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&dataCalls))

	token, ok, err := f.store.Token(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new", token)
}

func TestClient_SecondUnauthorizedClearsEverything(t *testing.T) {
	var refreshCalls, dataCalls int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RefreshPath:
			atomic.AddInt32(&refreshCalls, 1)
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"accessToken": "new"}})
		default:
			atomic.AddInt32(&dataCalls, 1)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "revoked"})
		}
	}))
	f.seedAllAliases(t, "old")

	_, err := f.client.Do(context.Background(), http.MethodGet, "/orders", nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&dataCalls))
	f.assertNoAliases(t)
}

func TestClient_RefreshFailureReturnsOriginalError(t *testing.T) {
	var dataCalls int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RefreshPath:
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "refresh expired"})
		default:
			atomic.AddInt32(&dataCalls, 1)
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "token expired"})
		}
	}))
	f.seedAllAliases(t, "old")

	_, err := f.client.Do(context.Background(), http.MethodGet, "/patients", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "/patients", apiErr.Path)
	assert.Equal(t, "token expired", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&dataCalls))
	f.assertNoAliases(t)
}

func TestClient_RefreshEndpointIsNeverRefreshed(t *testing.T) {
	var calls int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "nope"})
	}))
	require.NoError(t, f.store.Save(context.Background(), "old"))

	_, err := f.client.Do(context.Background(), http.MethodPost, RefreshPath, map[string]string{"token": "old"})
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	token, ok, _ := f.store.Token(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "old", token)
}

func TestClient_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	var refreshCalls, stale int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RefreshPath:
			atomic.AddInt32(&refreshCalls, 1)
			deadline := time.Now().Add(2 * time.Second)
			for atomic.LoadInt32(&stale) < 2 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			time.Sleep(200 * time.Millisecond)
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"token": "new"}})
		default:
			if r.Header.Get("Authorization") == "Bearer old" {
				atomic.AddInt32(&stale, 1)
				writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "expired"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": "ok"})
		}
	}))
	require.NoError(t, f.store.Save(context.Background(), "old"))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.client.Do(context.Background(), http.MethodGet, "/chats", nil)
		}(i)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}

func TestClient_CallerTimeoutDuringRefreshKeepsCredential(t *testing.T) {
	refreshed := make(chan struct{})
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RefreshPath:
			time.Sleep(300 * time.Millisecond)
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"token": "new"}})
			close(refreshed)
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "expired"})
		}
	}))
	require.NoError(t, f.store.Save(context.Background(), "old"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := f.client.Do(ctx, http.MethodGet, "/appointments", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, ok, err := f.store.Token(context.Background())
	require.NoError(t, err)
	assert.True(t, ok, "credential cleared after the caller gave up")

	<-refreshed
	require.Eventually(t, func() bool {
		token, _, _ := f.store.Token(context.Background())
		return token == "new"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_NetworkErrorPropagatesUnchanged(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	client := New(config.APIConfig{BaseURL: base, TimeoutSeconds: 1}, nil, nil)
	_, err := client.Do(context.Background(), http.MethodGet, "/doctors", nil)

	var urlErr *url.Error
	require.ErrorAs(t, err, &urlErr)
	_, isAPI := err.(*APIError)
	assert.False(t, isAPI)
}

func TestClient_ServerErrorKeepsStatusAndMessage(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"success": false, "message": "slot already booked"})
	}))

	_, err := f.client.Do(context.Background(), http.MethodPost, "/appointments", map[string]string{"slot": "x"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode())
	assert.Equal(t, "slot already booked", apiErr.ServerMessage())
}

func TestClient_SuccessFalseIsAnError(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "doctor not verified"})
	}))

	_, err := f.client.Do(context.Background(), http.MethodPatch, "/doctors/D1", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "doctor not verified", apiErr.Message)
}

func TestClient_MalformedBodyIsRejected(t *testing.T) {
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "<html>gateway</html>")
	}))

	_, err := f.client.Do(context.Background(), http.MethodGet, "/doctors", nil)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_UploadIsMultipartAndSurvivesRetry(t *testing.T) {
	var uploads int32
	f := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == RefreshPath {
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"token": "new"}})
			return
		}
		atomic.AddInt32(&uploads, 1)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Paracetamol", r.FormValue("name"))
		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "pill.png", header.Filename)
		assert.Equal(t, "PNGDATA", string(content))

		if r.Header.Get("Authorization") != "Bearer new" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "expired"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]string{"id": "P1", "name": "Paracetamol"}})
	}))
	require.NoError(t, f.store.Save(context.Background(), "old"))

	type product struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	got, err := Upload[product](context.Background(), f.client, "/products",
		map[string]string{"name": "Paracetamol"},
		File{Field: "image", Name: "pill.png", ContentType: "image/png", Content: strings.NewReader("PNGDATA")},
	)
	require.NoError(t, err)
	assert.Equal(t, "P1", got.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&uploads))
}
