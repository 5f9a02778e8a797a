package location

import (
	"context"
	"sync"
)

// CachedProvider wraps a Provider and remembers the most recent successful
// fix. The cached sample is never substituted for a failed fresh fix; it is
// only exposed through LastKnown for display purposes.
type CachedProvider struct {
	inner Provider

	mu   sync.RWMutex
	last *Sample
}

// NewCachedProvider wraps the given provider.
func NewCachedProvider(inner Provider) *CachedProvider {
	return &CachedProvider{inner: inner}
}

// HasPermission delegates to the wrapped provider.
func (p *CachedProvider) HasPermission() bool {
	return p.inner.HasPermission()
}

// CurrentLocation obtains a fresh fix and records it on success.
func (p *CachedProvider) CurrentLocation(ctx context.Context) (*Sample, error) {
	sample, err := p.inner.CurrentLocation(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.last = sample
	p.mu.Unlock()
	return sample, nil
}

// LastKnown returns the most recent successful fix, or nil. May be outdated.
func (p *CachedProvider) LastKnown() *Sample {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.last == nil {
		return nil
	}
	out := *p.last
	return &out
}

var _ Provider = (*CachedProvider)(nil)
