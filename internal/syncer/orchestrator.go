// Package syncer sequences identity bootstrap, backend registration, and
// location propagation. It is the background maintenance flow of the app:
// every failure is logged and swallowed so it can never block or interrupt
// the user's foreground task.
package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/feastradar/feastradar/internal/backend"
	"github.com/feastradar/feastradar/internal/identity"
	"github.com/feastradar/feastradar/internal/location"
	"github.com/feastradar/feastradar/internal/profile"
	"github.com/feastradar/feastradar/internal/push"
	"github.com/feastradar/feastradar/internal/telemetry"
)

// Backend is the slice of the backend client the orchestrator needs. Both
// operations are safe to repeat: the backend upserts.
type Backend interface {
	RegisterUser(ctx context.Context, req backend.RegisterUserRequest) (*backend.RegisterUserResponse, error)
	UpdateLocation(ctx context.Context, req backend.UpdateLocationRequest) (*backend.UpdateLocationResponse, error)
}

// Config holds the orchestrator's collaborators.
type Config struct {
	Identity identity.Provider
	Push     push.TokenProvider
	Location location.Provider
	Backend  Backend
	Profiles profile.Store
	Logger   zerolog.Logger

	// Instruments records sync counters (optional).
	Instruments *telemetry.Instruments
}

// Orchestrator brings a freshly launched installation to a state where the
// backend holds a live registration for the current principal, and keeps
// that registration's location fresh.
type Orchestrator struct {
	identity identity.Provider
	push     push.TokenProvider
	location location.Provider
	backend  Backend
	profiles profile.Store
	logger   zerolog.Logger
	metrics  *telemetry.Instruments

	// inFlight is a single-slot guard: a periodic tick arriving while a
	// manual refresh is still running is skipped, not queued.
	inFlight sync.Mutex
}

// New creates a new orchestrator.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		identity: cfg.Identity,
		push:     cfg.Push,
		location: cfg.Location,
		backend:  cfg.Backend,
		profiles: cfg.Profiles,
		logger:   cfg.Logger,
		metrics:  cfg.Instruments,
	}
}

// Initialize bootstraps the installation: sign in, persist the profile, and
// register with the backend exactly once per install. Failures are logged
// and swallowed; registration failure leaves the sync flag unset so the next
// call retries.
func (o *Orchestrator) Initialize(ctx context.Context) {
	if !o.inFlight.TryLock() {
		o.logger.Debug().Msg("sync already in flight, skipping initialize")
		return
	}
	defer o.inFlight.Unlock()

	principal, err := o.identity.SignIn(ctx)
	if err != nil {
		o.logger.Error().Err(err).Msg("sign-in failed, initialization aborted")
		return
	}

	token, err := o.push.CurrentToken(ctx)
	if err != nil {
		o.logger.Error().Err(err).Msg("no push token, initialization aborted")
		return
	}

	// Local profile write happens regardless of how registration goes;
	// local and remote state converge on the next periodic tick.
	if err := o.profiles.SaveIdentity(ctx, principal, token); err != nil {
		o.logger.Warn().Err(err).Msg("could not persist profile")
	}

	registered, err := o.profiles.Registered(ctx, principal)
	if err != nil {
		// An unreadable flag degrades to one extra registration call,
		// which the backend absorbs as an upsert.
		o.logger.Warn().Err(err).Msg("could not read sync flag, assuming unregistered")
		registered = false
	}
	if registered {
		o.logger.Debug().Str("principal", principal).Msg("already registered, skipping backend call")
		return
	}

	if o.metrics != nil {
		o.metrics.Registrations.Add(ctx, 1)
	}
	_, err = o.backend.RegisterUser(ctx, backend.RegisterUserRequest{
		FirebaseUID: principal,
		FCMToken:    token,
		Latitude:    backend.SentinelLatitude,
		Longitude:   backend.SentinelLongitude,
	})
	if err != nil {
		if o.metrics != nil {
			o.metrics.BackendErrors.Add(ctx, 1)
		}
		o.logger.Error().Err(err).Msg("backend registration failed, will retry on next start")
		return
	}

	if err := o.profiles.MarkRegistered(ctx, principal); err != nil {
		o.logger.Warn().Err(err).Msg("could not persist sync flag")
		return
	}

	o.logger.Info().Str("principal", principal).Msg("installation registered with backend")
}

// RefreshLocation samples the device location and pushes it, with the
// latest push token, to the backend. Best-effort: no principal, no
// permission, or any downstream failure all end in a silent no-op. The
// periodic trigger's fixed cadence is the retry policy.
func (o *Orchestrator) RefreshLocation(ctx context.Context) {
	if !o.inFlight.TryLock() {
		o.logger.Debug().Msg("sync already in flight, skipping location refresh")
		return
	}
	defer o.inFlight.Unlock()

	principal := o.identity.CurrentPrincipal()
	if principal == "" {
		return
	}

	sample, err := o.location.CurrentLocation(ctx)
	if err != nil {
		if errors.Is(err, location.ErrPermissionDenied) {
			o.logger.Debug().Msg("location capability withheld, skipping refresh")
		} else {
			o.logger.Warn().Err(err).Msg("no location fix, skipping refresh")
		}
		return
	}

	if err := o.profiles.SaveLocation(ctx, principal, sample.Latitude, sample.Longitude, sample.SampledAt); err != nil {
		o.logger.Warn().Err(err).Msg("could not persist location sample")
	}

	// Tokens rotate; resend the latest on every update.
	token, err := o.push.CurrentToken(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("no push token, location kept local only")
		return
	}

	_, err = o.backend.UpdateLocation(ctx, backend.UpdateLocationRequest{
		FirebaseUID: principal,
		Latitude:    sample.Latitude,
		Longitude:   sample.Longitude,
		FCMToken:    token,
	})
	if err != nil {
		if o.metrics != nil {
			o.metrics.BackendErrors.Add(ctx, 1)
		}
		o.logger.Warn().Err(err).Msg("location update failed, next tick retries")
		return
	}
	if o.metrics != nil {
		o.metrics.LocationUpdates.Add(ctx, 1)
	}

	o.logger.Debug().
		Str("principal", principal).
		Float64("lat", sample.Latitude).
		Float64("lon", sample.Longitude).
		Msg("location synced")
}
