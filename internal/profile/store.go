// Package profile provides the device-local store for the current
// principal's metadata: push token, last reported location, and the
// per-principal registration flag.
package profile

import (
	"context"
	"errors"
	"time"
)

// Store errors.
var (
	ErrNotFound = errors.New("profile not found")
)

// Profile is the locally persisted record for one principal.
type Profile struct {
	Principal string
	PushToken string
	Latitude  *float64
	Longitude *float64
	UpdatedAt time.Time
}

// Store defines device-local persistence. Implementations must be safe for
// concurrent use by the app-start path and the periodic refresh path.
type Store interface {
	// SaveIdentity upserts the principal/push-token pair. Always safe to
	// repeat; existing location fields are preserved.
	SaveIdentity(ctx context.Context, principal, pushToken string) error

	// SaveLocation records the latest location sample for the principal.
	SaveLocation(ctx context.Context, principal string, lat, lon float64, at time.Time) error

	// Get returns the stored profile, or ErrNotFound.
	Get(ctx context.Context, principal string) (*Profile, error)

	// Registered reports whether backend registration previously succeeded
	// for the principal.
	Registered(ctx context.Context, principal string) (bool, error)

	// MarkRegistered records a successful backend registration.
	MarkRegistered(ctx context.Context, principal string) error

	// GetValue reads an opaque value from the key/value bucket.
	// Returns nil (no error) when the key is absent.
	GetValue(ctx context.Context, key string) ([]byte, error)

	// SetValue upserts an opaque value in the key/value bucket.
	SetValue(ctx context.Context, key string, value []byte) error
}
