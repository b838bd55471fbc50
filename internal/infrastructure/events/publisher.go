// Package events delivers orchestrator events to collaborators. Publishing
// is fire-and-forget: the orchestrator never waits for or inspects delivery.
package events

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
)

// Publisher accepts events without blocking the caller on delivery.
type Publisher interface {
	Publish(ctx context.Context, event shared.Event)
}

// Sink is the delivery end of a publisher.
type Sink interface {
	Deliver(ctx context.Context, event shared.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event shared.Event) error

// Deliver implements Sink.
func (f SinkFunc) Deliver(ctx context.Context, event shared.Event) error {
	return f(ctx, event)
}

// Observer is told about delivery outcomes.
type Observer interface {
	EventPublished(name string)
	EventDropped(name string, reason string)
}

type nopObserver struct{}

func (nopObserver) EventPublished(string) {}
func (nopObserver) EventDropped(string, string) {}

// BreakerConfig configures the circuit breaker in front of a sink.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the breaker settings used for event sinks.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

func newBreaker(config BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Event sink breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// AsyncPublisher queues events in a bounded buffer and delivers them from a
// single goroutine, so events reach the sink in publish order. A full buffer
// drops the event rather than block the orchestrator.
type AsyncPublisher struct {
	sink     Sink
	queue    chan shared.Event
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
	observer Observer
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// AsyncOption configures an AsyncPublisher.
type AsyncOption func(*AsyncPublisher)

// WithObserver reports delivery outcomes.
func WithObserver(o Observer) AsyncOption {
	return func(p *AsyncPublisher) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithDeliveryTimeout bounds each delivery.
func WithDeliveryTimeout(d time.Duration) AsyncOption {
	return func(p *AsyncPublisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithBreaker replaces the default breaker settings.
func WithBreaker(config BreakerConfig) AsyncOption {
	return func(p *AsyncPublisher) {
		p.breaker = newBreaker(config, p.logger)
	}
}

// NewAsyncPublisher starts a publisher with a buffer of the given size.
func NewAsyncPublisher(sink Sink, buffer int, logger *zap.Logger, opts ...AsyncOption) *AsyncPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 256
	}
	p := &AsyncPublisher{
		sink:     sink,
		queue:    make(chan shared.Event, buffer),
		logger:   logger,
		observer: nopObserver{},
		timeout:  5 * time.Second,
		done:     make(chan struct{}),
	}
	p.breaker = newBreaker(DefaultBreakerConfig("event-sink"), logger)
	for _, opt := range opts {
		opt(p)
	}
	go p.run()
	return p
}

// Publish enqueues an event. It never blocks.
func (p *AsyncPublisher) Publish(_ context.Context, event shared.Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.observer.EventDropped(string(event.Name), "closed")
		return
	}

	select {
	case p.queue <- event:
	default:
		err := errors.Unavailable(errors.CodeEventBufferFull.String(), "event buffer full").
			WithDetails(string(event.Name)).
			Build()
		p.logger.Warn("Dropping event", zap.String("event", string(event.Name)), zap.Error(err))
		p.observer.EventDropped(string(event.Name), "buffer_full")
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for event := range p.queue {
		p.deliver(event)
	}
}

func (p *AsyncPublisher) deliver(event shared.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.sink.Deliver(ctx, event)
	})
	if err != nil {
		reason := "sink_error"
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			reason = "breaker_open"
		}
		p.logger.Error("Failed to deliver event",
			zap.String("event", string(event.Name)),
			zap.String("id", event.ID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		p.observer.EventDropped(string(event.Name), reason)
		return
	}
	p.observer.EventPublished(string(event.Name))
}

// Close stops accepting events and waits for the queue to drain or ctx to
// end.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ============================================================================
// SINKS
// ============================================================================

// LogSink writes each event to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver implements Sink.
func (s *LogSink) Deliver(_ context.Context, event shared.Event) error {
	s.logger.Info("Canvas event",
		zap.String("event", string(event.Name)),
		zap.String("id", event.ID),
		zap.Any("payload", event.Payload),
	)
	return nil
}

// WriterSink writes newline-delimited JSON events.
type WriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w)}
}

// Deliver implements Sink.
func (s *WriterSink) Deliver(_ context.Context, event shared.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(event); err != nil {
		return errors.Internal(errors.CodeCodecFailed.String(), "failed to encode event").
			WithDetails(string(event.Name)).
			WithCause(err).
			Build()
	}
	return nil
}

// Fanout delivers to every sink and returns the first error.
type Fanout []Sink

// Deliver implements Sink.
func (f Fanout) Deliver(ctx context.Context, event shared.Event) error {
	var first error
	for _, s := range f {
		if err := s.Deliver(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
