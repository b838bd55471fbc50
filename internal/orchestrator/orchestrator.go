package orchestrator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"brain2-canvas/internal/application/commands"
	"brain2-canvas/internal/application/commands/bus"
	"brain2-canvas/internal/config"
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/infrastructure/jsoncanvas"
	"brain2-canvas/internal/validation"
	"brain2-canvas/internal/viewport"
)

// Orchestrator is the single dispatcher. Dispatch may be called from any
// goroutine; intents are applied one at a time in arrival order.
type Orchestrator struct {
	mu     sync.Mutex
	app    *App
	bus    *bus.CommandBus
	logger *zap.Logger

	drag     *dragState
	connect  *connectState
	filter   Filter
	previews map[shared.NodeID]geometry.Size
}

// New wires every intent handler onto a fresh command bus. The pipeline
// recovers panics, traces, times, logs and validates, in that order.
func New(app *App, v bus.Validator) (*Orchestrator, error) {
	if v == nil {
		v = validation.NewValidator()
	}
	o := &Orchestrator{
		app:      app,
		logger:   app.Logger.Named("orchestrator"),
		previews: make(map[shared.NodeID]geometry.Size),
	}
	o.bus = bus.NewCommandBus(
		bus.RecoveryMiddleware(o.logger),
		bus.TracingMiddleware(app.Tracer),
		bus.MetricsMiddleware(app.Metrics),
		bus.LoggingMiddleware(o.logger),
		bus.ValidationMiddleware(v),
	)
	if err := o.registerHandlers(); err != nil {
		return nil, err
	}
	return o, nil
}

// App returns the application context.
func (o *Orchestrator) App() *App {
	return o.app
}

// Dispatch applies one intent. Duplicate-edge and self-loop attempts are
// idempotent gestures and succeed as no-ops.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd commands.Command) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	err := o.bus.Send(ctx, cmd)
	o.app.observeBoard()
	if shared.IsSilentRejection(err) {
		return nil
	}
	return err
}

// ApplyConfig adopts reloaded limits. Board contents are untouched.
func (o *Orchestrator) ApplyConfig(cfg *config.Config) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := SettingsFromConfig(cfg)
	o.app.Viewport.SetLimits(s.Limits)
	o.app.Viewport.Resize(s.ViewportWidth, s.ViewportHeight)
	o.app.History.SetLimit(s.HistoryLimit)
	o.app.Culler = viewport.NewCuller(s.CullMargin)
	o.app.settings.Limits = s.Limits
	o.app.settings.CullMargin = s.CullMargin
	o.app.settings.HistoryLimit = s.HistoryLimit
	o.app.settings.PasteOffset = s.PasteOffset
	if s.Debounce > 0 {
		o.app.debouncer.SetDelay(s.Debounce)
		o.app.settings.Debounce = s.Debounce
	}
	if edges := o.app.Store.SetStandOff(s.StandOff); edges != nil {
		o.rerouted(len(edges))
	}
	o.app.settings.StandOff = o.app.Store.StandOff()
	o.logger.Info("Applied configuration",
		zap.Float64("min_scale", s.Limits.MinScale),
		zap.Float64("max_scale", s.Limits.MaxScale),
		zap.Int("history_limit", s.HistoryLimit),
		zap.Duration("debounce", o.app.settings.Debounce),
		zap.Float64("stand_off", o.app.settings.StandOff),
	)
}

// Export snapshots the board as a JSON Canvas document.
func (o *Orchestrator) Export(opts jsoncanvas.ExportOptions) jsoncanvas.Document {
	o.mu.Lock()
	defer o.mu.Unlock()
	return jsoncanvas.Export(o.app.Store, opts)
}

// Close flushes the pending viewport notification.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.app.FlushViewport()
	o.app.debouncer.Stop()
}

// handle registers a typed handler.
func handle[C commands.Command](b *bus.CommandBus, fn func(context.Context, C) error) error {
	var zero C
	return b.RegisterFunc(zero, func(ctx context.Context, cmd commands.Command) error {
		return fn(ctx, cmd.(C))
	})
}

func (o *Orchestrator) registerHandlers() error {
	registrations := []func(*bus.CommandBus) error{
		// creation
		func(b *bus.CommandBus) error { return handle(b, o.createCard) },
		func(b *bus.CommandBus) error { return handle(b, o.createGroup) },
		func(b *bus.CommandBus) error { return handle(b, o.groupSelection) },
		func(b *bus.CommandBus) error { return handle(b, o.connectNodes) },
		// geometry
		func(b *bus.CommandBus) error { return handle(b, o.beginDrag) },
		func(b *bus.CommandBus) error { return handle(b, o.dragMove) },
		func(b *bus.CommandBus) error { return handle(b, o.endDrag) },
		func(b *bus.CommandBus) error { return handle(b, o.moveNode) },
		func(b *bus.CommandBus) error { return handle(b, o.resizeNode) },
		// content and structure
		func(b *bus.CommandBus) error { return handle(b, o.editCard) },
		func(b *bus.CommandBus) error { return handle(b, o.deleteNodes) },
		func(b *bus.CommandBus) error { return handle(b, o.deleteEdges) },
		func(b *bus.CommandBus) error { return handle(b, o.deleteSelection) },
		func(b *bus.CommandBus) error { return handle(b, o.toggleCollapse) },
		func(b *bus.CommandBus) error { return handle(b, o.restoreSnapshot) },
		func(b *bus.CommandBus) error { return handle(b, o.fileLoaded) },
		// selection
		func(b *bus.CommandBus) error { return handle(b, o.selectNode) },
		func(b *bus.CommandBus) error { return handle(b, o.selectEdge) },
		func(b *bus.CommandBus) error { return handle(b, o.clearSelection) },
		func(b *bus.CommandBus) error { return handle(b, o.beginBoxSelect) },
		func(b *bus.CommandBus) error { return handle(b, o.updateBoxSelect) },
		func(b *bus.CommandBus) error { return handle(b, o.endBoxSelect) },
		// viewport
		func(b *bus.CommandBus) error { return handle(b, o.pan) },
		func(b *bus.CommandBus) error { return handle(b, o.wheel) },
		func(b *bus.CommandBus) error { return handle(b, o.zoomStep) },
		func(b *bus.CommandBus) error { return handle(b, o.resetView) },
		func(b *bus.CommandBus) error { return handle(b, o.resizeViewport) },
		// history, clipboard, filter
		func(b *bus.CommandBus) error { return handle(b, o.undo) },
		func(b *bus.CommandBus) error { return handle(b, o.redo) },
		func(b *bus.CommandBus) error { return handle(b, o.copy) },
		func(b *bus.CommandBus) error { return handle(b, o.paste) },
		func(b *bus.CommandBus) error { return handle(b, o.setFilter) },
		func(b *bus.CommandBus) error { return handle(b, o.clearFilter) },
		// connection gesture
		func(b *bus.CommandBus) error { return handle(b, o.beginConnect) },
		func(b *bus.CommandBus) error { return handle(b, o.updateConnect) },
		func(b *bus.CommandBus) error { return handle(b, o.endConnect) },
	}
	for _, register := range registrations {
		if err := register(o.bus); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) rerouted(edges int) {
	if edges > 0 {
		o.app.Metrics.Rerouted(edges)
	}
}
