package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastradar/feastradar/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "feastradar-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)

	// Noop provider has no SDK providers but still exposes instruments,
	// so recording sites never branch on telemetry being on.
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)
	require.NotNil(t, provider.Instruments)
	assert.NotNil(t, provider.Instruments.SyncTicks)
	assert.NotNil(t, provider.Instruments.LocationUpdates)
	assert.NotNil(t, provider.Instruments.Registrations)
	assert.NotNil(t, provider.Instruments.BackendErrors)

	// Recording against noop instruments is safe.
	provider.Instruments.SyncTicks.Add(ctx, 1)

	err = provider.Shutdown(ctx)
	assert.NoError(t, err)
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	provider := &telemetry.Provider{}
	err := provider.Shutdown(context.Background())
	assert.NoError(t, err)
}

func TestTracer_ReturnsGlobalTracer(t *testing.T) {
	tracer := telemetry.Tracer("feastradar")
	assert.NotNil(t, tracer)
}

func TestMeter_ReturnsGlobalMeter(t *testing.T) {
	meter := telemetry.Meter("feastradar")
	assert.NotNil(t, meter)
}
