package agent_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastradar/feastradar/internal/agent"
	"github.com/feastradar/feastradar/internal/config"
)

func newBackendStub(t *testing.T, registers, updates *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		registers.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u-1","firebaseUid":"abc123"}`))
	})
	mux.HandleFunc("/api/users/location", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.NotFound(w, r)
			return
		}
		updates.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"firebaseUid":"abc123"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, backendURL string) config.Config {
	t.Helper()
	t.Setenv("FEAST_BACKEND_URL", backendURL)
	t.Setenv("FEAST_STATIC_PRINCIPAL", "abc123")
	t.Setenv("FEAST_STATIC_CREDENTIAL", "cred")
	t.Setenv("FEAST_PUSH_TOKEN", "tok-1")
	t.Setenv("FEAST_LATITUDE", "28.6139")
	t.Setenv("FEAST_LONGITUDE", "77.2090")
	t.Setenv("FEAST_SYNC_INTERVAL", "20ms")
	t.Setenv("FEAST_LISTEN_ADDR", "127.0.0.1:0")
	t.Setenv("FEAST_DATA_DIR", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestAgent_RunRegistersAndPushesLocation(t *testing.T) {
	var registers, updates atomic.Int64
	srv := newBackendStub(t, &registers, &updates)
	cfg := testConfig(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	a, err := agent.New(ctx, cfg, agent.Options{Version: "test", Logger: zerolog.Nop()})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return registers.Load() == 1 && updates.Load() >= 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not shut down")
	}
}

func TestAgent_StatusEndpoints(t *testing.T) {
	var registers, updates atomic.Int64
	srv := newBackendStub(t, &registers, &updates)
	cfg := testConfig(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	a, err := agent.New(ctx, cfg, agent.Options{Version: "1.2.3", Logger: zerolog.Nop()})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return updates.Load() >= 1
	}, 5*time.Second, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"1.2.3"`)

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/statusz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, true, status["signed_in"])
	assert.Equal(t, true, status["registered"])
	require.Contains(t, status, "last_location")
	loc := status["last_location"].(map[string]interface{})
	assert.InDelta(t, 28.6139, loc["latitude"].(float64), 1e-6)

	cancel()
	<-done
}
