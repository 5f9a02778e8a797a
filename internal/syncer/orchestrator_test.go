package syncer_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastradar/feastradar/internal/backend"
	"github.com/feastradar/feastradar/internal/identity"
	"github.com/feastradar/feastradar/internal/location"
	"github.com/feastradar/feastradar/internal/profile"
	"github.com/feastradar/feastradar/internal/push"
	"github.com/feastradar/feastradar/internal/syncer"
)

type fakeBackend struct {
	mu            sync.Mutex
	registerCalls int
	updateCalls   int
	registerErr   error
	updateErr     error
	lastRegister  backend.RegisterUserRequest
	lastUpdate    backend.UpdateLocationRequest
}

func (f *fakeBackend) RegisterUser(_ context.Context, req backend.RegisterUserRequest) (*backend.RegisterUserResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	f.lastRegister = req
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &backend.RegisterUserResponse{ID: "u-1", FirebaseUID: req.FirebaseUID}, nil
}

func (f *fakeBackend) UpdateLocation(_ context.Context, req backend.UpdateLocationRequest) (*backend.UpdateLocationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastUpdate = req
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &backend.UpdateLocationResponse{FirebaseUID: req.FirebaseUID}, nil
}

type fixture struct {
	orch     *syncer.Orchestrator
	backend  *fakeBackend
	profiles *profile.MemoryStore
	identity *identity.StaticProvider
	location *location.StaticProvider
}

func newFixture() *fixture {
	fb := &fakeBackend{}
	profiles := profile.NewMemoryStore()
	id := &identity.StaticProvider{Principal: "abc123", Credential: "cred"}
	loc := &location.StaticProvider{Latitude: 28.6139, Longitude: 77.2090, Enabled: true}

	orch := syncer.New(syncer.Config{
		Identity: id,
		Push:     &push.StaticProvider{Token: "tok-1"},
		Location: loc,
		Backend:  fb,
		Profiles: profiles,
		Logger:   zerolog.Nop(),
	})
	return &fixture{orch: orch, backend: fb, profiles: profiles, identity: id, location: loc}
}

func TestInitialize_FirstRunRegistersWithSentinel(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.orch.Initialize(ctx)

	// Exactly one registration, carrying the explicit unknown-location
	// sentinel, never (0, 0).
	assert.Equal(t, 1, f.backend.registerCalls)
	assert.Equal(t, "abc123", f.backend.lastRegister.FirebaseUID)
	assert.Equal(t, -90.0, f.backend.lastRegister.Latitude)
	assert.Equal(t, -180.0, f.backend.lastRegister.Longitude)

	registered, err := f.profiles.Registered(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, registered)

	// Profile store carries the identity regardless of backend outcome.
	p, err := f.profiles.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", p.PushToken)
}

func TestInitialize_SecondRunSkipsRegistration(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.orch.Initialize(ctx)
	f.orch.Initialize(ctx)

	assert.Equal(t, 1, f.backend.registerCalls, "registration is idempotent across restarts")
}

func TestInitialize_FailedRegistrationRetriesNextRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.backend.registerErr = backend.ErrTransport

	f.orch.Initialize(ctx)
	assert.Equal(t, 1, f.backend.registerCalls)

	registered, err := f.profiles.Registered(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, registered, "flag stays unset on failure")

	// Next launch retries and succeeds.
	f.backend.registerErr = nil
	f.orch.Initialize(ctx)
	assert.Equal(t, 2, f.backend.registerCalls)

	registered, err = f.profiles.Registered(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, registered)
}

func TestInitialize_NoPrincipalAbortsSilently(t *testing.T) {
	f := newFixture()
	f.identity.Principal = ""

	f.orch.Initialize(context.Background())

	assert.Zero(t, f.backend.registerCalls)
	_, err := f.profiles.Get(context.Background(), "abc123")
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestRefreshLocation_PushesSampleAndToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.orch.RefreshLocation(ctx)

	assert.Equal(t, 1, f.backend.updateCalls)
	assert.Equal(t, "abc123", f.backend.lastUpdate.FirebaseUID)
	assert.InDelta(t, 28.6139, f.backend.lastUpdate.Latitude, 1e-9)
	assert.InDelta(t, 77.2090, f.backend.lastUpdate.Longitude, 1e-9)
	assert.Equal(t, "tok-1", f.backend.lastUpdate.FCMToken)

	p, err := f.profiles.Get(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, p.Latitude)
	assert.InDelta(t, 28.6139, *p.Latitude, 1e-9)
}

func TestRefreshLocation_NoPrincipalIsNoop(t *testing.T) {
	f := newFixture()
	f.identity.Principal = ""

	f.orch.RefreshLocation(context.Background())

	assert.Zero(t, f.backend.updateCalls)
}

func TestRefreshLocation_NoSampleSkipsBackend(t *testing.T) {
	f := newFixture()
	f.location.Enabled = false

	f.orch.RefreshLocation(context.Background())

	assert.Zero(t, f.backend.updateCalls)
	_, err := f.profiles.Get(context.Background(), "abc123")
	assert.ErrorIs(t, err, profile.ErrNotFound, "no sample means no local write either")
}

func TestRefreshLocation_BackendFailureKeepsLocalSample(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.backend.updateErr = &backend.Error{Op: "updateLocation", StatusCode: 500, Message: "boom"}

	// Completes without panicking or surfacing anything.
	f.orch.RefreshLocation(ctx)

	assert.Equal(t, 1, f.backend.updateCalls)

	// The local profile still reflects the new sample.
	p, err := f.profiles.Get(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, p.Latitude)
	assert.InDelta(t, 28.6139, *p.Latitude, 1e-9)
}

func TestOverlappingInvocationsDoNotDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// Run many concurrent refreshes; the single-slot guard means the
	// backend sees at most one call per completed slot, and nothing races.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.orch.RefreshLocation(ctx)
		}()
	}
	wg.Wait()

	f.backend.mu.Lock()
	calls := f.backend.updateCalls
	f.backend.mu.Unlock()
	assert.GreaterOrEqual(t, calls, 1)
	assert.LessOrEqual(t, calls, 8)
}
