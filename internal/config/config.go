// Package config loads agent settings from an optional YAML file with
// environment variable overrides. Precedence: defaults, then file, then env.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all agent and CLI settings.
type Config struct {
	// Backend is the feast backend API.
	Backend BackendConfig `yaml:"backend"`

	// Identity configures anonymous sign-in.
	Identity IdentityConfig `yaml:"identity"`

	// Location configures where coordinates come from.
	Location LocationConfig `yaml:"location"`

	// Push configures the messaging token source.
	Push PushConfig `yaml:"push"`

	// Sync configures the periodic refresh loop.
	Sync SyncConfig `yaml:"sync"`

	// DataDir holds the local profile database.
	DataDir string `yaml:"data_dir"`

	// ListenAddr is the status server bind address.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Telemetry configures trace and metric export.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// BackendConfig holds feast backend API settings.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`

	// RadiusMeters is the default nearby search radius.
	RadiusMeters float64 `yaml:"radius_meters"`
}

// IdentityConfig holds anonymous sign-in settings.
type IdentityConfig struct {
	// BaseURL is the identity toolkit endpoint.
	BaseURL string `yaml:"base_url"`

	// TokenURL is the credential refresh endpoint.
	TokenURL string `yaml:"token_url"`

	// APIKey authenticates toolkit requests. Required unless a static
	// principal is configured.
	APIKey string `yaml:"api_key"`

	// StaticPrincipal bypasses the toolkit entirely when set.
	StaticPrincipal  string `yaml:"static_principal"`
	StaticCredential string `yaml:"static_credential"`
}

// LocationConfig selects the coordinate source. When GeolocateURL is set
// the agent queries it; otherwise the fixed coordinate is used.
type LocationConfig struct {
	GeolocateURL string `yaml:"geolocate_url"`

	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`

	// Enabled gates location collection altogether.
	Enabled bool `yaml:"enabled"`
}

// PushConfig selects the messaging token source.
type PushConfig struct {
	// TokenFile is re-read on every send so rotations are picked up.
	TokenFile string `yaml:"token_file"`

	// Token is a fixed token used when no file is configured.
	Token string `yaml:"token"`
}

// SyncConfig holds periodic refresh settings.
type SyncConfig struct {
	Interval   time.Duration `yaml:"interval"`
	RunOnStart bool          `yaml:"run_on_start"`
}

// TelemetryConfig holds trace and metric export settings.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Environment  string `yaml:"environment"`
}

// Default returns the built-in settings.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Backend: BackendConfig{
			RadiusMeters: 500.0,
		},
		Identity: IdentityConfig{
			BaseURL:  "https://identitytoolkit.googleapis.com",
			TokenURL: "https://securetoken.googleapis.com",
		},
		Location: LocationConfig{
			Enabled: true,
		},
		Sync: SyncConfig{
			Interval:   15 * time.Minute,
			RunOnStart: true,
		},
		DataDir:    filepath.Join(home, ".feastradar"),
		ListenAddr: ":8080",
		LogLevel:   "info",
		Telemetry: TelemetryConfig{
			Environment: "development",
		},
	}
}

// Load builds the effective configuration. path may be empty, in which
// case only defaults and environment variables apply. A nonexistent
// explicit path is an error; env overrides always win over the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Backend.BaseURL, "FEAST_BACKEND_URL")
	setFloat(&cfg.Backend.RadiusMeters, "FEAST_RADIUS_METERS")

	setString(&cfg.Identity.BaseURL, "FEAST_IDENTITY_URL")
	setString(&cfg.Identity.TokenURL, "FEAST_IDENTITY_TOKEN_URL")
	setString(&cfg.Identity.APIKey, "FEAST_IDENTITY_API_KEY")
	setString(&cfg.Identity.StaticPrincipal, "FEAST_STATIC_PRINCIPAL")
	setString(&cfg.Identity.StaticCredential, "FEAST_STATIC_CREDENTIAL")

	setString(&cfg.Location.GeolocateURL, "FEAST_GEOLOCATE_URL")
	setFloat(&cfg.Location.Latitude, "FEAST_LATITUDE")
	setFloat(&cfg.Location.Longitude, "FEAST_LONGITUDE")
	setBool(&cfg.Location.Enabled, "FEAST_LOCATION_ENABLED")

	setString(&cfg.Push.TokenFile, "FEAST_PUSH_TOKEN_FILE")
	setString(&cfg.Push.Token, "FEAST_PUSH_TOKEN")

	setDuration(&cfg.Sync.Interval, "FEAST_SYNC_INTERVAL")
	setBool(&cfg.Sync.RunOnStart, "FEAST_SYNC_RUN_ON_START")

	setString(&cfg.DataDir, "FEAST_DATA_DIR")
	setString(&cfg.ListenAddr, "FEAST_LISTEN_ADDR")
	setString(&cfg.LogLevel, "FEAST_LOG_LEVEL")

	setBool(&cfg.Telemetry.Enabled, "OTEL_ENABLED")
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Telemetry.Environment, "APP_ENV")
}

func (c Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required (FEAST_BACKEND_URL)")
	}
	if c.Backend.RadiusMeters <= 0 {
		return fmt.Errorf("radius must be positive, got %v", c.Backend.RadiusMeters)
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %v", c.Sync.Interval)
	}
	if c.Identity.APIKey == "" && c.Identity.StaticPrincipal == "" {
		return fmt.Errorf("either an identity API key or a static principal is required")
	}
	return nil
}

// DatabasePath returns the profile database location under DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "profile.db")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
