package location_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastradar/feastradar/internal/location"
)

type flakyProvider struct {
	sample *location.Sample
	err    error
}

func (f *flakyProvider) HasPermission() bool { return true }

func (f *flakyProvider) CurrentLocation(_ context.Context) (*location.Sample, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sample, nil
}

func TestCachedProvider_RemembersLastFix(t *testing.T) {
	ctx := context.Background()
	inner := &flakyProvider{sample: &location.Sample{Latitude: 1, Longitude: 2}}
	cached := location.NewCachedProvider(inner)

	assert.Nil(t, cached.LastKnown())

	sample, err := cached.CurrentLocation(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sample.Latitude, 1e-9)

	last := cached.LastKnown()
	require.NotNil(t, last)
	assert.InDelta(t, 1.0, last.Latitude, 1e-9)

	// A failed fix does not clear or replace the cache.
	inner.err = location.ErrUnavailable
	_, err = cached.CurrentLocation(ctx)
	assert.ErrorIs(t, err, location.ErrUnavailable)

	last = cached.LastKnown()
	require.NotNil(t, last)
	assert.InDelta(t, 1.0, last.Latitude, 1e-9)
}

func TestStaticProvider_PermissionToggle(t *testing.T) {
	ctx := context.Background()

	p := &location.StaticProvider{Latitude: 28.6139, Longitude: 77.2090, Enabled: true}
	sample, err := p.CurrentLocation(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 28.6139, sample.Latitude, 1e-9)

	p.Enabled = false
	assert.False(t, p.HasPermission())
	_, err = p.CurrentLocation(ctx)
	assert.ErrorIs(t, err, location.ErrPermissionDenied)
}
