package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tokonext/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestDisabledProvidersAreNoop(t *testing.T) {
	shutdown, err := InitTracerProvider(context.Background(), config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.NotNil(t, otel.GetTextMapPropagator())

	handler, shutdownMetrics, err := InitMeterProvider(config.TelemetryConfig{MetricsEnabled: false})
	require.NoError(t, err)
	assert.Nil(t, handler)
	assert.NoError(t, shutdownMetrics(context.Background()))
}

func TestMeterProviderServesPrometheus(t *testing.T) {
	handler, shutdown, err := InitMeterProvider(config.TelemetryConfig{MetricsEnabled: true, ServiceName: "storefront-test"})
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	DefaultInstruments().OrderPlaced(context.Background(), "midtrans")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_orders_placed")
}
