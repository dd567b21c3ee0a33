package app

import (
	"context"
	"errors"

	"github.com/tokonext/internal/config"
	"github.com/tokonext/internal/provider"
	"github.com/tokonext/internal/router"
	"github.com/tokonext/internal/telemetry"
	"github.com/tokonext/internal/worker"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !isKnownMode(mode) {
		return nil, errors.New("unknown mode: " + mode)
	}

	// 指标提供者需先于容器初始化，业务埋点从全局 MeterProvider 获取
	traceShutdown, err := telemetry.InitTracerProvider(context.Background(), cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	metricsHandler, metricsShutdown, err := telemetry.InitMeterProvider(cfg.Telemetry)
	if err != nil {
		_ = traceShutdown(context.Background())
		return nil, err
	}

	container := provider.NewContainer(cfg)

	services := []Service{
		newCleanupService(func(ctx context.Context) error {
			container.Close()
			return errors.Join(metricsShutdown(ctx), traceShutdown(ctx))
		}),
	}

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container, metricsHandler)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		handler := otelhttp.NewHandler(engine, "tokonext-api")
		services = append(services, NewHTTPService(addr, handler))
	}

	// 初始化 Worker 服务
	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			if mode == ModeWorker {
				_ = services[0].Stop(context.Background())
				return nil, err
			}
			// all 模式下队列未启用时仅运行 HTTP
		} else {
			services = append(services, workerService)
		}
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
