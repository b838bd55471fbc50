package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"brain2-canvas/internal/application/commands"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
	"brain2-canvas/internal/validation"
)

type recorder struct {
	names []string
	errs  []error
}

func (r *recorder) RecordCommand(name string, _ time.Duration, err error) {
	r.names = append(r.names, name)
	r.errs = append(r.errs, err)
}

func TestCommandBus_RegisterAndSend(t *testing.T) {
	b := NewCommandBus()
	var got commands.Pan
	require.NoError(t, b.RegisterFunc(commands.Pan{}, func(_ context.Context, cmd commands.Command) error {
		got = cmd.(commands.Pan)
		return nil
	}))

	require.NoError(t, b.Send(context.Background(), commands.Pan{DX: 3, DY: 4}))
	assert.Equal(t, commands.Pan{DX: 3, DY: 4}, got)
	assert.True(t, b.Registered(commands.Pan{}))
	assert.False(t, b.Registered(commands.Undo{}))
}

func TestCommandBus_Errors(t *testing.T) {
	b := NewCommandBus()
	noop := func(context.Context, commands.Command) error { return nil }
	require.NoError(t, b.RegisterFunc(commands.Undo{}, noop))

	err := b.RegisterFunc(commands.Undo{}, noop)
	assert.Equal(t, errors.CodeHandlerAlreadyExists.String(), errors.CodeOf(err))

	err = b.Send(context.Background(), commands.Redo{})
	assert.Equal(t, errors.CodeHandlerNotFound.String(), errors.CodeOf(err))
	assert.True(t, errors.IsNotFound(err))

	assert.Error(t, b.Send(context.Background(), nil))
}

func TestPipeline_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next CommandHandler) CommandHandler {
			return CommandHandlerFunc(func(ctx context.Context, cmd commands.Command) error {
				order = append(order, name)
				return next.Handle(ctx, cmd)
			})
		}
	}
	b := NewCommandBus(mw("first"), mw("second"))
	require.NoError(t, b.RegisterFunc(commands.Undo{}, func(context.Context, commands.Command) error {
		order = append(order, "handler")
		return nil
	}))

	require.NoError(t, b.Send(context.Background(), commands.Undo{}))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestValidationMiddleware_RejectsBeforeHandler(t *testing.T) {
	called := false
	b := NewCommandBus(ValidationMiddleware(validation.NewValidator()))
	require.NoError(t, b.RegisterFunc(commands.ConnectNodes{}, func(context.Context, commands.Command) error {
		called = true
		return nil
	}))

	err := b.Send(context.Background(), commands.ConnectNodes{From: "a", To: "b", FromSide: "top"})
	assert.True(t, errors.IsValidation(err))

	err = b.Send(context.Background(), commands.ConnectNodes{From: "a", To: "b", FromSide: "top", ToSide: "diagonal"})
	assert.True(t, errors.IsValidation(err))
	assert.False(t, called)

	require.NoError(t, b.Send(context.Background(), commands.ConnectNodes{From: "a", To: "b"}))
	assert.True(t, called)
}

func TestRecoveryMiddleware(t *testing.T) {
	b := NewCommandBus(RecoveryMiddleware(zap.NewNop()))
	require.NoError(t, b.RegisterFunc(commands.Paste{}, func(context.Context, commands.Command) error {
		panic("boom")
	}))

	err := b.Send(context.Background(), commands.Paste{})
	require.Error(t, err)
	assert.Equal(t, errors.CodePanicRecovered.String(), errors.CodeOf(err))
	assert.Equal(t, errors.SeverityCritical, errors.GetSeverity(err))
}

func TestLoggingMiddleware_Levels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	b := NewCommandBus(LoggingMiddleware(zap.New(core)))
	require.NoError(t, b.RegisterFunc(commands.ConnectNodes{}, func(context.Context, commands.Command) error {
		return shared.ErrDuplicateEdge
	}))
	require.NoError(t, b.RegisterFunc(commands.Copy{}, func(context.Context, commands.Command) error {
		return errors.Internal(errors.CodeInternalError.String(), "broken").Build()
	}))

	_ = b.Send(context.Background(), commands.ConnectNodes{})
	assert.Equal(t, 1, logs.FilterMessage("Command rejected").Len())

	_ = b.Send(context.Background(), commands.Copy{})
	failed := logs.FilterMessage("Command failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "Copy", failed[0].ContextMap()["command"])
	assert.Equal(t, true, failed[0].ContextMap()["internal"])
	assert.Equal(t, false, failed[0].ContextMap()["retryable"])
}

func TestLoggingMiddleware_ClassifiesErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	b := NewCommandBus(LoggingMiddleware(zap.New(core)))
	require.NoError(t, b.RegisterFunc(commands.MoveNode{}, func(context.Context, commands.Command) error {
		return shared.ErrNodeNotFound.WithDetails("node %s", "x")
	}))
	require.NoError(t, b.RegisterFunc(commands.GroupSelection{}, func(context.Context, commands.Command) error {
		return shared.ErrNotAGroup
	}))
	require.NoError(t, b.RegisterFunc(commands.Paste{}, func(context.Context, commands.Command) error {
		return errors.Unavailable(errors.CodeClipboardFailed.String(), "system clipboard unsupported").Build()
	}))

	_ = b.Send(context.Background(), commands.MoveNode{})
	_ = b.Send(context.Background(), commands.GroupSelection{})
	refused := logs.FilterMessage("Command refused").All()
	require.Len(t, refused, 2)
	assert.Equal(t, zap.WarnLevel, refused[0].Level)
	assert.Equal(t, errors.CodeOf(shared.ErrNodeNotFound), refused[0].ContextMap()["code"])
	assert.Equal(t, string(errors.GetSeverity(shared.ErrNotAGroup)), refused[1].ContextMap()["severity"])

	_ = b.Send(context.Background(), commands.Paste{})
	failed := logs.FilterMessage("Command failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, true, failed[0].ContextMap()["retryable"])
	assert.Equal(t, false, failed[0].ContextMap()["internal"])
}

func TestMetricsMiddleware(t *testing.T) {
	rec := &recorder{}
	b := NewCommandBus(MetricsMiddleware(rec))
	require.NoError(t, b.RegisterFunc(commands.ResetView{}, func(context.Context, commands.Command) error { return nil }))

	require.NoError(t, b.Send(context.Background(), commands.ResetView{}))
	assert.Equal(t, []string{"ResetView"}, rec.names)
	assert.NoError(t, rec.errs[0])
}

func TestTracingMiddleware(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	b := NewCommandBus(TracingMiddleware(tp.Tracer("test")))
	require.NoError(t, b.RegisterFunc(commands.ZoomStep{}, func(context.Context, commands.Command) error { return nil }))
	require.NoError(t, b.RegisterFunc(commands.ConnectNodes{}, func(context.Context, commands.Command) error {
		return shared.ErrSelfLoop
	}))

	require.NoError(t, b.Send(context.Background(), commands.ZoomStep{In: true}))
	_ = b.Send(context.Background(), commands.ConnectNodes{})

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "command.ZoomStep", spans[0].Name)
	assert.Empty(t, spans[1].Events, "silent rejections are not recorded as span errors")
}
