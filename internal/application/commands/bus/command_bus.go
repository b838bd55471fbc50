// Package bus dispatches intents to their handlers through a middleware
// pipeline.
package bus

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"brain2-canvas/internal/application/commands"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
)

// CommandHandler handles a specific command type.
type CommandHandler interface {
	Handle(ctx context.Context, cmd commands.Command) error
}

// CommandHandlerFunc is an adapter to allow functions to be used as handlers.
type CommandHandlerFunc func(ctx context.Context, cmd commands.Command) error

// Handle implements CommandHandler.
func (f CommandHandlerFunc) Handle(ctx context.Context, cmd commands.Command) error {
	return f(ctx, cmd)
}

// Middleware wraps a handler.
type Middleware func(next CommandHandler) CommandHandler

// CommandBus dispatches commands to their handlers.
type CommandBus struct {
	handlers map[reflect.Type]CommandHandler
	pipeline *Pipeline
	mu       sync.RWMutex
}

// NewCommandBus creates a bus whose handlers all run through middlewares,
// outermost first.
func NewCommandBus(middlewares ...Middleware) *CommandBus {
	return &CommandBus{
		handlers: make(map[reflect.Type]CommandHandler),
		pipeline: NewPipeline(middlewares...),
	}
}

// Register registers a handler for a command type.
func (b *CommandBus) Register(cmdType commands.Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(cmdType)
	if _, exists := b.handlers[t]; exists {
		return errors.Conflict(errors.CodeHandlerAlreadyExists.String(), "handler already registered").
			WithDetails(cmdType.CommandName()).
			WithResource("command_bus").
			Build()
	}

	b.handlers[t] = b.pipeline.Execute(handler)
	return nil
}

// RegisterFunc registers a plain function as a handler.
func (b *CommandBus) RegisterFunc(cmdType commands.Command, fn func(ctx context.Context, cmd commands.Command) error) error {
	return b.Register(cmdType, CommandHandlerFunc(fn))
}

// Send dispatches a command to its handler.
func (b *CommandBus) Send(ctx context.Context, cmd commands.Command) error {
	if cmd == nil {
		return errors.Validation(errors.CodeInvalidInput.String(), "nil command").Build()
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()

	if !exists {
		return errors.NotFound(errors.CodeHandlerNotFound.String(), "no handler registered for command").
			WithDetails(cmd.CommandName()).
			WithResource("command_bus").
			Build()
	}
	return handler.Handle(ctx, cmd)
}

// Registered reports whether a handler exists for the command's type.
func (b *CommandBus) Registered(cmd commands.Command) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.handlers[reflect.TypeOf(cmd)]
	return ok
}

// Pipeline chains multiple middleware together.
type Pipeline struct {
	middlewares []Middleware
}

// NewPipeline creates a new middleware pipeline.
func NewPipeline(middlewares ...Middleware) *Pipeline {
	return &Pipeline{middlewares: middlewares}
}

// Execute wraps handler so that the first middleware runs first.
func (p *Pipeline) Execute(handler CommandHandler) CommandHandler {
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		handler = p.middlewares[i](handler)
	}
	return handler
}

// ============================================================================
// MIDDLEWARE
// ============================================================================

// LoggingMiddleware logs command execution. Silent rejections such as a
// duplicate edge and invalid input are logged at debug level, refusals of a
// well-formed intent by the board at warn level, and everything else at
// error level.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd commands.Command) error {
			name := cmd.CommandName()
			logger.Debug("Executing command", zap.String("command", name))

			err := next.Handle(ctx, cmd)
			switch {
			case err == nil:
				logger.Debug("Command succeeded", zap.String("command", name))
			case shared.IsSilentRejection(err) || errors.IsValidation(err):
				logger.Debug("Command rejected", zap.String("command", name), zap.Error(err))
			case errors.IsNotFound(err) || errors.IsConflict(err) || errors.IsDomain(err):
				logger.Warn("Command refused",
					zap.String("command", name),
					zap.String("code", errors.CodeOf(err)),
					zap.String("severity", string(errors.GetSeverity(err))),
					zap.Error(err),
				)
			default:
				logger.Error("Command failed",
					zap.String("command", name),
					zap.String("code", errors.CodeOf(err)),
					zap.String("severity", string(errors.GetSeverity(err))),
					zap.Bool("internal", errors.IsInternal(err)),
					zap.Bool("retryable", errors.IsRetryable(err)),
					zap.Error(err),
				)
			}
			return err
		})
	}
}

// Validator checks a command before it reaches its handler.
type Validator interface {
	Validate(i interface{}) error
}

// ValidationMiddleware rejects invalid commands.
func ValidationMiddleware(v Validator) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd commands.Command) error {
			if err := v.Validate(cmd); err != nil {
				return err
			}
			return next.Handle(ctx, cmd)
		})
	}
}

// RecoveryMiddleware turns a handler panic into a PANIC_RECOVERED error.
func RecoveryMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd commands.Command) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Recovered from panic in command handler",
						zap.String("command", cmd.CommandName()),
						zap.Any("panic", r),
						zap.ByteString("stack", debug.Stack()),
					)
					err = errors.Internal(errors.CodePanicRecovered.String(), "command handler panicked").
						WithDetails(fmt.Sprintf("%s: %v", cmd.CommandName(), r)).
						WithSeverity(errors.SeverityCritical).
						Build()
				}
			}()
			return next.Handle(ctx, cmd)
		})
	}
}

// MetricsRecorder receives one observation per dispatched command.
type MetricsRecorder interface {
	RecordCommand(name string, duration time.Duration, err error)
}

// MetricsMiddleware times every command.
func MetricsMiddleware(recorder MetricsRecorder) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd commands.Command) error {
			start := time.Now()
			err := next.Handle(ctx, cmd)
			recorder.RecordCommand(cmd.CommandName(), time.Since(start), err)
			return err
		})
	}
}

// TracingMiddleware opens one span per command.
func TracingMiddleware(tracer trace.Tracer) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd commands.Command) error {
			ctx, span := tracer.Start(ctx, "command."+cmd.CommandName(),
				trace.WithAttributes(attribute.String("command.name", cmd.CommandName())),
			)
			defer span.End()

			err := next.Handle(ctx, cmd)
			if err != nil && !shared.IsSilentRejection(err) {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return err
		})
	}
}
