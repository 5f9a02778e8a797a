package identity

import "context"

// StaticProvider returns a fixed principal and credential. Used in tests and
// for deployments where identity is provisioned out of band.
type StaticProvider struct {
	Principal  string
	Credential string
}

// SignIn returns the fixed principal.
func (p *StaticProvider) SignIn(_ context.Context) (string, error) {
	if p.Principal == "" {
		return "", ErrNoPrincipal
	}
	return p.Principal, nil
}

// CurrentPrincipal returns the fixed principal.
func (p *StaticProvider) CurrentPrincipal() string {
	return p.Principal
}

// CurrentCredential returns the fixed credential.
func (p *StaticProvider) CurrentCredential(_ context.Context) (string, error) {
	if p.Credential == "" {
		return "", ErrNoCredential
	}
	return p.Credential, nil
}

var _ Provider = (*StaticProvider)(nil)
