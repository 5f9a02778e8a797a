package backend

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// CredentialSource supplies the bearer credential for outbound requests.
// identity.Provider satisfies it.
type CredentialSource interface {
	CurrentCredential(ctx context.Context) (string, error)
}

// AuthTransport decorates outbound requests with the current bearer
// credential. When no session exists the request proceeds unauthenticated
// and the server decides whether to accept it.
type AuthTransport struct {
	Credentials CredentialSource
	Base        http.RoundTripper
	Logger      zerolog.Logger
}

// NewAuthTransport creates the decorator over the given base transport.
func NewAuthTransport(creds CredentialSource, base http.RoundTripper, logger zerolog.Logger) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthTransport{Credentials: creds, Base: base, Logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Credentials == nil {
		return t.Base.RoundTrip(req)
	}

	token, err := t.Credentials.CurrentCredential(req.Context())
	if err != nil || token == "" {
		if err != nil {
			t.Logger.Debug().Err(err).Msg("no credential for outbound request, sending unauthenticated")
		}
		return t.Base.RoundTrip(req)
	}

	// Clone before mutating: RoundTrippers must not modify the original.
	authed := req.Clone(req.Context())
	authed.Header.Set("Authorization", "Bearer "+token)
	return t.Base.RoundTrip(authed)
}
