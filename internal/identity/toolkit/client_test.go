package toolkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastradar/feastradar/internal/identity"
	"github.com/feastradar/feastradar/internal/profile"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, identity.SessionStore) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sessions := identity.NewKVSessionStore(profile.NewMemoryStore())
	client := NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		TokenURL:   server.URL,
		HTTPClient: server.Client(),
		Sessions:   sessions,
		Logger:     zerolog.Nop(),
	})
	return client, sessions
}

func TestClient_SignIn_CreatesAndPersists(t *testing.T) {
	var signUps int32
	client, sessions := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasPrefix(r.URL.Path, "/v1/accounts:signUp"))
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		atomic.AddInt32(&signUps, 1)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"idToken":      "opaque-token",
			"refreshToken": "refresh-1",
			"localId":      "abc123",
			"expiresIn":    "3600",
		})
	}))

	principal, err := client.SignIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", principal)
	assert.Equal(t, "abc123", client.CurrentPrincipal())

	// Second sign-in reuses the in-memory session; no extra network call.
	principal, err = client.SignIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", principal)
	assert.Equal(t, int32(1), atomic.LoadInt32(&signUps))

	sess, err := sessions.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "abc123", sess.Principal)
	assert.Equal(t, "refresh-1", sess.RefreshToken)
}

func TestClient_SignIn_ReusesPersistedSession(t *testing.T) {
	store := profile.NewMemoryStore()
	sessions := identity.NewKVSessionStore(store)
	require.NoError(t, sessions.Save(context.Background(), &identity.Session{
		Principal:    "persisted",
		RefreshToken: "refresh-0",
	}))

	// Any network call is a failure: the persisted session must be enough.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		TokenURL:   server.URL,
		HTTPClient: server.Client(),
		Sessions:   sessions,
		Logger:     zerolog.Nop(),
	})

	principal, err := client.SignIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "persisted", principal)
}

func TestClient_SignIn_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"API_KEY_INVALID"}}`))
	}))

	_, err := client.SignIn(context.Background())
	assert.ErrorIs(t, err, identity.ErrNoPrincipal)
	assert.Empty(t, client.CurrentPrincipal())
}

func TestClient_CurrentCredential_RefreshesWhenStale(t *testing.T) {
	var refreshes int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v1/accounts:signUp"):
			_ = json.NewEncoder(w).Encode(map[string]string{
				"idToken":      "short-lived",
				"refreshToken": "refresh-1",
				"localId":      "abc123",
				"expiresIn":    "1", // already inside the refresh margin
			})
		case strings.HasPrefix(r.URL.Path, "/v1/token"):
			atomic.AddInt32(&refreshes, 1)
			require.NoError(t, r.ParseForm())
			require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			require.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id_token":      "fresh-token",
				"refresh_token": "refresh-2",
				"user_id":       "abc123",
				"expires_in":    "3600",
			})
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))

	_, err := client.SignIn(context.Background())
	require.NoError(t, err)

	token, err := client.CurrentCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))

	// Fresh token is cached.
	token, err = client.CurrentCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
}

func TestClient_CurrentCredential_SignedOut(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))

	_, err := client.CurrentCredential(context.Background())
	assert.ErrorIs(t, err, identity.ErrNoCredential)
}

func TestTokenExpiry_FallsBackToExpiresIn(t *testing.T) {
	before := time.Now()
	exp := tokenExpiry("not-a-jwt", "120")
	assert.WithinDuration(t, before.Add(2*time.Minute), exp, 5*time.Second)

	exp = tokenExpiry("not-a-jwt", "garbage")
	assert.WithinDuration(t, before.Add(time.Hour), exp, 5*time.Second)
}
