package telemetry

import (
	"context"
	"testing"

	"cell-editor/internal/engineconfig"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := Setup(context.Background(), "test", engineconfig.TelemetryConfig{Enabled: true})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupNoopWhenDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), "test", engineconfig.TelemetryConfig{Endpoint: "http://localhost:4318"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, shutdown(ctx))
}

func TestSetupCreatesProvider(t *testing.T) {
	// non-routable, nothing is exported
	cfg := engineconfig.TelemetryConfig{Endpoint: "http://192.0.2.1:4318", Enabled: true}
	shutdown, err := Setup(context.Background(), "test", cfg)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
