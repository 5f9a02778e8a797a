package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastradar/feastradar/internal/config"
)

func TestLoad_DefaultsWithEnv(t *testing.T) {
	t.Setenv("FEAST_BACKEND_URL", "https://api.example.com")
	t.Setenv("FEAST_IDENTITY_API_KEY", "key-1")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 500.0, cfg.Backend.RadiusMeters)
	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
	assert.True(t, cfg.Sync.RunOnStart)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://identitytoolkit.googleapis.com", cfg.Identity.BaseURL)
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	body := `
backend:
  base_url: https://file.example.com
  radius_meters: 1200
sync:
  interval: 5m
identity:
  static_principal: abc123
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("FEAST_BACKEND_URL", "https://env.example.com")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	// Env wins over the file; the file wins over defaults.
	assert.Equal(t, "https://env.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 1200.0, cfg.Backend.RadiusMeters)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "abc123", cfg.Identity.StaticPrincipal)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "no backend url",
			env:  map[string]string{"FEAST_IDENTITY_API_KEY": "k"},
		},
		{
			name: "no identity source",
			env:  map[string]string{"FEAST_BACKEND_URL": "https://api.example.com"},
		},
		{
			name: "bad radius",
			env: map[string]string{
				"FEAST_BACKEND_URL":      "https://api.example.com",
				"FEAST_IDENTITY_API_KEY": "k",
				"FEAST_RADIUS_METERS":    "-10",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}

func TestDatabasePath(t *testing.T) {
	t.Setenv("FEAST_BACKEND_URL", "https://api.example.com")
	t.Setenv("FEAST_IDENTITY_API_KEY", "k")
	t.Setenv("FEAST_DATA_DIR", "/var/lib/feastradar")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/feastradar/profile.db", cfg.DatabasePath())
}
