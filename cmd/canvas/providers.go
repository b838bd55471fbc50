package main

import (
	"context"
	"os"
	"time"

	"github.com/google/wire"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"brain2-canvas/internal/config"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/infrastructure/clipboard"
	"brain2-canvas/internal/infrastructure/events"
	"brain2-canvas/internal/infrastructure/jsoncanvas"
	"brain2-canvas/internal/infrastructure/observability"
	"brain2-canvas/internal/logging"
	"brain2-canvas/internal/orchestrator"
)

// boardFile is the JSON Canvas document a canvas starts from. Empty means a
// blank board.
type boardFile string

// canvas is everything a running board needs.
type canvas struct {
	Config       *config.Config
	Logging      *logging.Result
	Logger       *zap.Logger
	Collector    *observability.Collector
	Publisher    *events.AsyncPublisher
	Orchestrator *orchestrator.Orchestrator
}

// providerSet wires a canvas from configuration.
var providerSet = wire.NewSet(
	provideLogging,
	provideLogger,
	provideCollector,
	provideTracing,
	provideTracer,
	provideSink,
	providePublisher,
	provideClipboard,
	provideStore,
	provideApp,
	provideOrchestrator,
	wire.Bind(new(orchestrator.Metrics), new(*observability.Collector)),
	wire.Bind(new(events.Publisher), new(*events.AsyncPublisher)),
	wire.Struct(new(canvas), "*"),
)

func provideLogging(cfg *config.Config) (*logging.Result, func()) {
	res := logging.New(cfg.Logging)
	return res, func() { _ = res.Close() }
}

func provideLogger(res *logging.Result) *zap.Logger {
	return res.Logger
}

func provideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.Metrics.Namespace)
}

func provideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

func provideTracer(tp *observability.TracerProvider) trace.Tracer {
	return tp.Tracer()
}

// provideSink picks where outbound events go.
func provideSink(cfg *config.Config, logger *zap.Logger) events.Sink {
	switch cfg.Events.Sink {
	case "stdout":
		return events.NewWriterSink(os.Stdout)
	case "none":
		return events.SinkFunc(func(context.Context, shared.Event) error { return nil })
	default:
		return events.NewLogSink(logger.Named("events"))
	}
}

func providePublisher(cfg *config.Config, sink events.Sink, logger *zap.Logger, collector *observability.Collector) (*events.AsyncPublisher, func()) {
	breaker := events.DefaultBreakerConfig("event-sink")
	breaker.FailureThreshold = cfg.Events.FailureThreshold
	breaker.MinRequests = cfg.Events.MinRequests
	if cfg.Events.OpenTimeout > 0 {
		breaker.Timeout = cfg.Events.OpenTimeout
	}
	pub := events.NewAsyncPublisher(sink, cfg.Events.BufferSize, logger.Named("publisher"),
		events.WithObserver(collector),
		events.WithDeliveryTimeout(cfg.Events.DeliveryTimeout),
		events.WithBreaker(breaker),
	)
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pub.Close(ctx); err != nil {
			logger.Warn("Event queue not drained", zap.Error(err))
		}
	}
	return pub, cleanup
}

// provideClipboard prefers the system clipboard and falls back to memory on
// headless hosts.
func provideClipboard(logger *zap.Logger) clipboard.Clipboard {
	sys, err := clipboard.NewSystem()
	if err != nil {
		logger.Info("Using in-process clipboard", zap.Error(err))
		return clipboard.NewMemory()
	}
	return sys
}

func provideStore(cfg *config.Config, board boardFile, logger *zap.Logger) (*graph.Store, error) {
	if board == "" {
		return graph.NewStore(graph.WithLogger(logger), graph.WithStandOff(cfg.Canvas.StandOff)), nil
	}
	return loadBoard(string(board), logger, graph.WithStandOff(cfg.Canvas.StandOff))
}

func loadBoard(path string, logger *zap.Logger, opts ...graph.Option) (*graph.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := jsoncanvas.Decode(f)
	if err != nil {
		return nil, err
	}
	return jsoncanvas.Load(doc, logger, opts...)
}

func provideApp(
	cfg *config.Config,
	store *graph.Store,
	pub events.Publisher,
	clip clipboard.Clipboard,
	logger *zap.Logger,
	metrics orchestrator.Metrics,
	tracer trace.Tracer,
) *orchestrator.App {
	return orchestrator.NewApp(orchestrator.SettingsFromConfig(cfg), orchestrator.Deps{
		Store:     store,
		Publisher: pub,
		Clipboard: clip,
		Logger:    logger,
		Metrics:   metrics,
		Tracer:    tracer,
	})
}

func provideOrchestrator(app *orchestrator.App) (*orchestrator.Orchestrator, func(), error) {
	o, err := orchestrator.New(app, nil)
	if err != nil {
		return nil, nil, err
	}
	return o, o.Close, nil
}
