// Package identity provides the anonymous principal for this installation
// and the bearer credential used to authenticate outbound calls.
package identity

import (
	"context"
	"errors"
)

// Sentinel errors for identity operations.
var (
	// ErrNoPrincipal indicates no principal could be obtained.
	ErrNoPrincipal = errors.New("no principal obtainable")
	// ErrNoCredential indicates no bearer credential is available.
	ErrNoCredential = errors.New("no credential available")
)

// Provider supplies the stable anonymous principal and its credential.
type Provider interface {
	// SignIn ensures a principal exists, creating one on first launch, and
	// returns its identifier. The identifier is stable across calls.
	SignIn(ctx context.Context) (string, error)

	// CurrentPrincipal returns the signed-in principal, or "" when no
	// sign-in has happened yet.
	CurrentPrincipal() string

	// CurrentCredential returns a bearer token for the principal,
	// refreshing it when stale. ErrNoCredential when signed out.
	CurrentCredential(ctx context.Context) (string, error)
}

// Session is the persisted identity state for one installation.
type Session struct {
	Principal    string `json:"principal"`
	RefreshToken string `json:"refreshToken"`
}

// SessionStore persists the identity session across restarts.
type SessionStore interface {
	// Load returns the stored session, or nil when none exists.
	Load(ctx context.Context) (*Session, error)

	// Save upserts the session.
	Save(ctx context.Context, s *Session) error
}
