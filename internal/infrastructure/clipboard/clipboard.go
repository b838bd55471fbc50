// Package clipboard stores copied board fragments. Memory keeps them in
// process; System round-trips them through the OS clipboard as JSON.
package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
	"github.com/goccy/go-json"

	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/errors"
)

// Clipboard holds at most one copied subgraph.
type Clipboard interface {
	Write(sub graph.Subgraph) error
	Read() (graph.Subgraph, bool, error)
}

// Memory is an in-process clipboard.
type Memory struct {
	mu  sync.Mutex
	sub graph.Subgraph
	set bool
}

// NewMemory creates an empty clipboard.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Write(sub graph.Subgraph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sub = sub.Clone()
	m.set = true
	return nil
}

func (m *Memory) Read() (graph.Subgraph, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return graph.Subgraph{}, false, nil
	}
	return m.sub.Clone(), true, nil
}

// envelope marks clipboard text as ours.
type envelope struct {
	Format   string         `json:"format"`
	Subgraph graph.Subgraph `json:"subgraph"`
}

const format = "brain2-canvas/subgraph"

// System uses the operating system clipboard.
type System struct{}

// NewSystem returns a System clipboard, or an error when the platform has no
// clipboard utility.
func NewSystem() (*System, error) {
	if clipboard.Unsupported {
		return nil, errors.Unavailable(errors.CodeClipboardFailed.String(), "system clipboard unsupported").Build()
	}
	return &System{}, nil
}

func (s *System) Write(sub graph.Subgraph) error {
	data, err := json.Marshal(envelope{Format: format, Subgraph: sub})
	if err != nil {
		return errors.Internal(errors.CodeCodecFailed.String(), "failed to encode clipboard").WithCause(err).Build()
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		return errors.Unavailable(errors.CodeClipboardFailed.String(), "failed to write clipboard").WithCause(err).Build()
	}
	return nil
}

// Read returns false when the clipboard holds something other than a
// copied subgraph.
func (s *System) Read() (graph.Subgraph, bool, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return graph.Subgraph{}, false, errors.Unavailable(errors.CodeClipboardFailed.String(), "failed to read clipboard").WithCause(err).Build()
	}
	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil || env.Format != format {
		return graph.Subgraph{}, false, nil
	}
	return env.Subgraph, true, nil
}
