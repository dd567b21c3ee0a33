package telemetry

import (
	"context"
	"net/http"

	"github.com/tokonext/internal/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider 初始化 Prometheus 导出，返回 /metrics 处理器
func InitMeterProvider(cfg config.TelemetryConfig) (http.Handler, ShutdownFunc, error) {
	if !cfg.MetricsEnabled {
		return nil, noopShutdown, nil
	}
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(cfg)),
	)
	otel.SetMeterProvider(mp)
	return promhttp.Handler(), func(ctx context.Context) error { return mp.Shutdown(ctx) }, nil
}
