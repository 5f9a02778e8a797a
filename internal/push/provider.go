// Package push supplies the device messaging token used for push
// notification delivery. Tokens are minted and rotated by the platform
// messaging layer; this package only hands out the current one.
package push

import (
	"context"
	"errors"
)

// ErrNoToken indicates no messaging token could be obtained.
var ErrNoToken = errors.New("no push token obtainable")

// TokenProvider supplies the current device messaging token. Tokens can
// rotate at any time, so callers re-fetch before every send to the backend.
type TokenProvider interface {
	CurrentToken(ctx context.Context) (string, error)
}

// StaticProvider returns a fixed token. Used in tests and for deployments
// where the token is provisioned out of band.
type StaticProvider struct {
	Token string
}

// CurrentToken returns the fixed token.
func (p *StaticProvider) CurrentToken(_ context.Context) (string, error) {
	if p.Token == "" {
		return "", ErrNoToken
	}
	return p.Token, nil
}

var _ TokenProvider = (*StaticProvider)(nil)
