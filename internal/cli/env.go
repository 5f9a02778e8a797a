package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/feastradar/feastradar/internal/backend"
	"github.com/feastradar/feastradar/internal/config"
	"github.com/feastradar/feastradar/internal/feast"
	"github.com/feastradar/feastradar/internal/identity"
	"github.com/feastradar/feastradar/internal/identity/toolkit"
	"github.com/feastradar/feastradar/internal/location"
	"github.com/feastradar/feastradar/internal/location/geolocate"
	"github.com/feastradar/feastradar/internal/profile"
	"github.com/feastradar/feastradar/internal/push"
	"github.com/feastradar/feastradar/internal/syncer"
)

// env is the per-invocation wiring: configuration, the local profile
// store, and the services built on them. Close releases the store.
type env struct {
	cfg      config.Config
	logger   zerolog.Logger
	store    *profile.SQLiteStore
	identity identity.Provider
	feasts   *feast.Service
	orch     *syncer.Orchestrator
}

func newEnv(opts *RootOptions) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	level := zerolog.WarnLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	store, err := profile.OpenSQLite(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}

	var idp identity.Provider
	if cfg.Identity.StaticPrincipal != "" {
		idp = &identity.StaticProvider{
			Principal:  cfg.Identity.StaticPrincipal,
			Credential: cfg.Identity.StaticCredential,
		}
	} else {
		idp = toolkit.NewClient(toolkit.ClientConfig{
			APIKey:   cfg.Identity.APIKey,
			BaseURL:  cfg.Identity.BaseURL,
			TokenURL: cfg.Identity.TokenURL,
			Sessions: identity.NewKVSessionStore(store),
			Logger:   logger,
		})
	}

	backendClient := backend.NewClient(backend.ClientConfig{
		BaseURL:     cfg.Backend.BaseURL,
		Credentials: idp,
		Logger:      logger,
	})

	feasts := feast.NewService(feast.ServiceConfig{
		Backend:   backendClient,
		Principal: idp,
		Logger:    logger,
	})

	var pushProvider push.TokenProvider
	if cfg.Push.TokenFile != "" {
		pushProvider = push.NewFileProvider(cfg.Push.TokenFile)
	} else {
		pushProvider = &push.StaticProvider{Token: cfg.Push.Token}
	}

	var locProvider location.Provider
	if cfg.Location.GeolocateURL != "" {
		locProvider = geolocate.NewClient(geolocate.ClientConfig{
			Endpoint: cfg.Location.GeolocateURL,
			Enabled:  cfg.Location.Enabled,
			Logger:   logger,
		})
	} else {
		locProvider = &location.StaticProvider{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
			Enabled:   cfg.Location.Enabled,
		}
	}

	orch := syncer.New(syncer.Config{
		Identity: idp,
		Push:     pushProvider,
		Location: locProvider,
		Backend:  backendClient,
		Profiles: store,
		Logger:   logger,
	})

	return &env{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		identity: idp,
		feasts:   feasts,
		orch:     orch,
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}
