package events

import (
	"context"
	"sync"

	"brain2-canvas/internal/domain/shared"
)

// Recorder keeps published events in memory. It is synchronous, so it suits
// tests and the one-shot CLI commands.
type Recorder struct {
	mu     sync.Mutex
	events []shared.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, event shared.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Deliver implements Sink.
func (r *Recorder) Deliver(ctx context.Context, event shared.Event) error {
	r.Publish(ctx, event)
	return nil
}

// Events returns a copy of everything recorded.
func (r *Recorder) Events() []shared.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.Event(nil), r.events...)
}

// Named returns the recorded events with the given name.
func (r *Recorder) Named(name shared.EventName) []shared.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shared.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []shared.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.EventName, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

// Reset forgets everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
