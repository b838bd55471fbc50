// Package orchestrator composes the canvas core. Every pointer, keyboard or
// collaborator intent is a commands.Command routed through one dispatcher,
// which mutates the App context and emits outbound events.
package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"brain2-canvas/internal/application/commands/bus"
	"brain2-canvas/internal/config"
	"brain2-canvas/internal/domain/containment"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/history"
	"brain2-canvas/internal/infrastructure/clipboard"
	"brain2-canvas/internal/infrastructure/events"
	"brain2-canvas/internal/selection"
	"brain2-canvas/internal/viewport"
)

// Metrics receives observations from the dispatcher.
// *observability.Collector satisfies it.
type Metrics interface {
	bus.MetricsRecorder
	HistoryOp(op string, ok bool)
	ObserveBoard(nodes, edges int)
	ObserveFrame(visible int, scale float64)
	Rerouted(n int)
}

type nopMetrics struct{}

func (nopMetrics) RecordCommand(string, time.Duration, error) {}
func (nopMetrics) HistoryOp(string, bool)                     {}
func (nopMetrics) ObserveBoard(int, int)                      {}
func (nopMetrics) ObserveFrame(int, float64)                  {}
func (nopMetrics) Rerouted(int)                               {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, shared.Event) {}

// Settings are the tunables the core reads from configuration.
type Settings struct {
	ViewportWidth  float64
	ViewportHeight float64
	Limits         viewport.Limits
	CullMargin     float64
	Debounce       time.Duration
	HistoryLimit   int
	StandOff       float64
	PasteOffset    float64
}

// DefaultSettings returns the built-in tunables.
func DefaultSettings() Settings {
	return Settings{
		ViewportWidth:  1280,
		ViewportHeight: 800,
		Limits:         viewport.DefaultLimits(),
		CullMargin:     shared.CullMargin,
		Debounce:       shared.ViewportDelay,
		HistoryLimit:   shared.DefaultHistoryLimit,
		StandOff:       shared.RouteStandOff,
		PasteOffset:    shared.PasteOffset,
	}
}

// SettingsFromConfig maps loaded configuration onto Settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ViewportWidth:  cfg.Viewport.Width,
		ViewportHeight: cfg.Viewport.Height,
		Limits: viewport.Limits{
			MinScale:    cfg.Viewport.MinScale,
			MaxScale:    cfg.Viewport.MaxScale,
			WheelFactor: cfg.Viewport.WheelFactor,
			FineWheel:   cfg.Viewport.FineWheel,
			ZoomStep:    cfg.Viewport.ZoomStep,
		},
		CullMargin:   cfg.Viewport.CullMargin,
		Debounce:     cfg.Viewport.Debounce,
		HistoryLimit: cfg.History.Limit,
		StandOff:     cfg.Canvas.StandOff,
		PasteOffset:  cfg.Canvas.PasteOffset,
	}
}

// Deps are the collaborators handed to NewApp. Nil fields get quiet
// defaults.
type Deps struct {
	Store     *graph.Store
	Publisher events.Publisher
	Clipboard clipboard.Clipboard
	Logger    *zap.Logger
	Metrics   Metrics
	Tracer    trace.Tracer
}

// App is the explicit application context. Nothing in the core is reached
// through package state; every handler works on the App it was built with.
type App struct {
	Store     *graph.Store
	Engine    *containment.Engine
	Viewport  *viewport.Viewport
	Culler    *viewport.Culler
	Selection *selection.State
	History   *history.History
	Publisher events.Publisher
	Clipboard clipboard.Clipboard
	Logger    *zap.Logger
	Metrics   Metrics
	Tracer    trace.Tracer

	settings  Settings
	debouncer *viewport.Debouncer
}

// NewApp builds the context. The store is created from settings unless one
// is supplied, e.g. after an import.
func NewApp(settings Settings, deps Deps) *App {
	a := &App{
		Publisher: deps.Publisher,
		Clipboard: deps.Clipboard,
		Logger:    deps.Logger,
		Metrics:   deps.Metrics,
		Tracer:    deps.Tracer,
		settings:  settings,
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	if a.Publisher == nil {
		a.Publisher = nopPublisher{}
	}
	if a.Clipboard == nil {
		a.Clipboard = clipboard.NewMemory()
	}
	if a.Metrics == nil {
		a.Metrics = nopMetrics{}
	}
	if a.Tracer == nil {
		a.Tracer = noop.NewTracerProvider().Tracer("brain2-canvas")
	}

	a.Store = deps.Store
	if a.Store == nil {
		a.Store = graph.NewStore(graph.WithLogger(a.Logger), graph.WithStandOff(settings.StandOff))
	}
	a.Engine = containment.NewEngine(a.Store, a.Logger.Named("containment"))
	a.Viewport = viewport.New(settings.ViewportWidth, settings.ViewportHeight, settings.Limits)
	a.Culler = viewport.NewCuller(settings.CullMargin)
	a.Selection = selection.New()
	a.History = history.New(a.replay,
		history.WithLimit(settings.HistoryLimit),
		history.WithLogger(a.Logger.Named("history")),
		history.WithNotifier(a.notice),
		history.WithObserver(a.Metrics.HistoryOp),
	)
	a.debouncer = viewport.NewDebouncer(settings.Debounce, func(s viewport.State) {
		a.emit(context.Background(), shared.EventViewportChanged, shared.ViewportChanged{X: s.X, Y: s.Y, Scale: s.Scale})
	})
	return a
}

// Settings returns the tunables currently in effect.
func (a *App) Settings() Settings {
	return a.settings
}

func (a *App) emit(ctx context.Context, name shared.EventName, payload interface{}) {
	a.Publisher.Publish(ctx, shared.NewEvent(name, payload))
}

func (a *App) notice(n shared.Notice) {
	a.emit(context.Background(), shared.EventNotice, n)
}

func (a *App) notify(level shared.NoticeLevel, message string) {
	a.notice(shared.Notice{Level: level, Message: message})
}

// viewportChanged schedules the debounced notification for the current
// camera state.
func (a *App) viewportChanged() {
	a.debouncer.Trigger(a.Viewport.State())
}

// FlushViewport delivers a pending viewport notification now.
func (a *App) FlushViewport() {
	a.debouncer.Flush()
}

// ViewportPending reports whether a viewport notification is scheduled.
func (a *App) ViewportPending() bool {
	return a.debouncer.Pending()
}

func (a *App) observeBoard() {
	a.Metrics.ObserveBoard(a.Store.NodeCount(), a.Store.EdgeCount())
}
