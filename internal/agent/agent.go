// Package agent wires the sync components together and runs them: a
// one-shot initialization, the periodic location refresh, and a small
// status server for health checks.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
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
	"github.com/feastradar/feastradar/internal/telemetry"
	"github.com/feastradar/feastradar/internal/trigger"
)

// Agent owns the assembled sync pipeline.
type Agent struct {
	cfg    config.Config
	logger zerolog.Logger

	store    *profile.SQLiteStore
	identity identity.Provider
	location *location.CachedProvider
	orch     *syncer.Orchestrator
	trig     *trigger.Periodic
	feasts   *feast.Service
	tel      *telemetry.Provider
	server   *http.Server

	version string
}

// Options carries assembly inputs that are not configuration.
type Options struct {
	Version string
	Logger  zerolog.Logger
}

// New assembles an Agent from configuration. The profile database is
// opened here; Run releases it on shutdown.
func New(ctx context.Context, cfg config.Config, opts Options) (*Agent, error) {
	logger := opts.Logger

	store, err := profile.OpenSQLite(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}

	tel, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "feastradar-agent",
		ServiceVersion: opts.Version,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		_ = store.Close() //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("init telemetry: %w", err)
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
			Logger:   logger.With().Str("component", "identity").Logger(),
		})
	}

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
			Logger:   logger.With().Str("component", "geolocate").Logger(),
		})
	} else {
		locProvider = &location.StaticProvider{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
			Enabled:   cfg.Location.Enabled,
		}
	}
	cached := location.NewCachedProvider(locProvider)

	backendClient := backend.NewClient(backend.ClientConfig{
		BaseURL:     cfg.Backend.BaseURL,
		Credentials: idp,
		Logger:      logger.With().Str("component", "backend").Logger(),
	})

	orch := syncer.New(syncer.Config{
		Identity:    idp,
		Push:        pushProvider,
		Location:    cached,
		Backend:     backendClient,
		Profiles:    store,
		Logger:      logger.With().Str("component", "syncer").Logger(),
		Instruments: tel.Instruments,
	})

	trig := trigger.New(trigger.Config{
		Interval:   cfg.Sync.Interval,
		RunOnStart: cfg.Sync.RunOnStart,
		Logger:     logger.With().Str("component", "trigger").Logger(),
	})

	feasts := feast.NewService(feast.ServiceConfig{
		Backend:   backendClient,
		Principal: idp,
		Logger:    logger.With().Str("component", "feast").Logger(),
	})

	a := &Agent{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		identity: idp,
		location: cached,
		orch:     orch,
		trig:     trig,
		feasts:   feasts,
		tel:      tel,
		version:  opts.Version,
	}
	a.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      a.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return a, nil
}

// Feasts returns the foreground feast service.
func (a *Agent) Feasts() *feast.Service {
	return a.feasts
}

// Handler exposes the status routes for tests.
func (a *Agent) Handler() http.Handler {
	return a.server.Handler
}

// Run starts the status server and the sync loop, then blocks until ctx is
// cancelled. Shutdown drains the status server and closes the store.
func (a *Agent) Run(ctx context.Context) error {
	go func() {
		a.logger.Info().Str("addr", a.server.Addr).Msg("status server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("status server failed")
		}
	}()

	a.orch.Initialize(ctx)

	a.trig.Run(ctx, func(tickCtx context.Context) {
		a.orch.RefreshLocation(tickCtx)
		a.tel.Instruments.SyncTicks.Add(tickCtx, 1)
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("status server shutdown: %w", err))
	}
	if err := a.tel.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close profile store: %w", err))
	}
	return errors.Join(errs...)
}

func (a *Agent) router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", a.handleHealth)
	r.Get("/statusz", a.handleStatus)
	return r
}

func (a *Agent) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","version":%q}`, a.version)
}

func (a *Agent) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"version": a.version,
		"sync":    a.trig.MetricsSnapshot(),
	}

	principal := a.identity.CurrentPrincipal()
	status["signed_in"] = principal != ""

	if principal != "" {
		registered, err := a.store.Registered(r.Context(), principal)
		if err == nil {
			status["registered"] = registered
		}
	}

	if last := a.location.LastKnown(); last != nil {
		status["last_location"] = map[string]interface{}{
			"latitude":   last.Latitude,
			"longitude":  last.Longitude,
			"sampled_at": last.SampledAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		a.logger.Error().Err(err).Msg("encode status response")
	}
}
