// Package location supplies best-effort device coordinates on demand.
package location

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for location operations.
var (
	// ErrPermissionDenied indicates the location capability is withheld.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnavailable indicates no fix could be obtained.
	ErrUnavailable = errors.New("location unavailable")
)

// Sample is one location fix. Ephemeral; consumed immediately by the caller.
type Sample struct {
	Latitude  float64
	Longitude float64
	SampledAt time.Time
}

// Provider supplies device coordinates, gated by a capability check.
type Provider interface {
	// HasPermission reports whether the location capability is granted.
	HasPermission() bool

	// CurrentLocation obtains a fresh fix. ErrPermissionDenied when the
	// capability is withheld, ErrUnavailable when no fix can be obtained.
	CurrentLocation(ctx context.Context) (*Sample, error)
}

// StaticProvider returns a fixed coordinate. Used for stationary
// installations and in tests.
type StaticProvider struct {
	Latitude  float64
	Longitude float64
	Enabled   bool
}

// HasPermission reports the configured capability toggle.
func (p *StaticProvider) HasPermission() bool {
	return p.Enabled
}

// CurrentLocation returns the fixed coordinate stamped with the current time.
func (p *StaticProvider) CurrentLocation(_ context.Context) (*Sample, error) {
	if !p.Enabled {
		return nil, ErrPermissionDenied
	}
	return &Sample{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		SampledAt: time.Now(),
	}, nil
}

var _ Provider = (*StaticProvider)(nil)
