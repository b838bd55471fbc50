package history

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
)

// ApplyFunc replays a command. The orchestrator supplies one that applies
// the command to the store and emits the matching collaborator events.
type ApplyFunc func(cmd Command, dir Direction) error

// Option configures a History.
type Option func(*History)

// WithLimit caps the undo stack. Non-positive values keep the default.
func WithLimit(limit int) Option {
	return func(h *History) {
		if limit > 0 {
			h.limit = limit
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *History) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithNotifier receives user-visible notices.
func WithNotifier(fn func(shared.Notice)) Option {
	return func(h *History) {
		if fn != nil {
			h.notify = fn
		}
	}
}

// WithObserver is told about every undo/redo attempt.
func WithObserver(fn func(op string, ok bool)) Option {
	return func(h *History) {
		if fn != nil {
			h.observe = fn
		}
	}
}

// History is a bounded linear undo/redo log. It is not safe for concurrent
// use.
type History struct {
	undo      []Command
	redo      []Command
	limit     int
	replaying bool

	apply   ApplyFunc
	logger  *zap.Logger
	notify  func(shared.Notice)
	observe func(op string, ok bool)
}

// New creates an empty history that replays commands with apply.
func New(apply ApplyFunc, opts ...Option) *History {
	h := &History{
		limit:   shared.DefaultHistoryLimit,
		apply:   apply,
		logger:  zap.NewNop(),
		notify:  func(shared.Notice) {},
		observe: func(string, bool) {},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Push records a command, clears the redo stack and drops the oldest entries
// beyond the limit. While a command is being replayed Push is a no-op, so a
// replay can never record itself. It reports whether cmd was recorded.
func (h *History) Push(cmd Command) bool {
	if h.replaying {
		h.logger.Debug("Ignoring push during replay", zap.String("kind", string(cmd.Kind)))
		return false
	}
	if cmd.IsEmpty() {
		return false
	}
	h.undo = append(h.undo, cmd)
	h.trim()
	h.redo = nil
	return true
}

// Undo reverts the most recent command. An empty stack yields
// ErrNothingToUndo and a notice. If the inverse fails the command is
// discarded, the failure is reported and ErrReplayFailed is returned.
func (h *History) Undo() (Command, error) {
	if len(h.undo) == 0 {
		h.notify(shared.Notice{Level: shared.NoticeInfo, Message: "Nothing to undo"})
		return Command{}, shared.ErrNothingToUndo
	}
	cmd := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	if err := h.replay(cmd, Backward); err != nil {
		return cmd, h.failed("undo", cmd, err)
	}
	h.redo = append(h.redo, cmd)
	h.observe("undo", true)
	h.notify(shared.Notice{Level: shared.NoticeInfo, Message: "Undo: " + cmd.Description})
	return cmd, nil
}

// Redo re-applies the most recently undone command.
func (h *History) Redo() (Command, error) {
	if len(h.redo) == 0 {
		h.notify(shared.Notice{Level: shared.NoticeInfo, Message: "Nothing to redo"})
		return Command{}, shared.ErrNothingToRedo
	}
	cmd := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	if err := h.replay(cmd, Forward); err != nil {
		return cmd, h.failed("redo", cmd, err)
	}
	h.undo = append(h.undo, cmd)
	h.trim()
	h.observe("redo", true)
	h.notify(shared.Notice{Level: shared.NoticeInfo, Message: "Redo: " + cmd.Description})
	return cmd, nil
}

func (h *History) replay(cmd Command, dir Direction) (err error) {
	h.replaying = true
	defer func() {
		h.replaying = false
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during %s replay: %v", dir, r)
		}
	}()
	return h.apply(cmd, dir)
}

func (h *History) failed(op string, cmd Command, cause error) error {
	h.logger.Error("History replay failed, dropping command",
		zap.String("op", op),
		zap.String("kind", string(cmd.Kind)),
		zap.String("description", cmd.Description),
		zap.Error(cause),
	)
	h.observe(op, false)
	h.notify(shared.Notice{Level: shared.NoticeError, Message: fmt.Sprintf("%s failed: %s", strings.ToUpper(op[:1])+op[1:], cmd.Description)})
	return errors.Internal(errors.CodeReplayFailed.String(), "history replay failed").
		WithOperation(op).
		WithResource("history").
		WithDetails(cmd.Description).
		WithCause(cause).
		Build()
}

// Replaying reports whether a command is currently being replayed.
func (h *History) Replaying() bool { return h.replaying }

// CanUndo reports whether Undo has anything to do.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo has anything to do.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoLen returns the undo stack depth.
func (h *History) UndoLen() int { return len(h.undo) }

// RedoLen returns the redo stack depth.
func (h *History) RedoLen() int { return len(h.redo) }

// Limit returns the undo stack cap.
func (h *History) Limit() int { return h.limit }

// UndoStack returns a copy of the undo stack, oldest first.
func (h *History) UndoStack() []Command {
	return append([]Command(nil), h.undo...)
}

// SetLimit changes the cap and trims immediately.
func (h *History) SetLimit(limit int) {
	if limit <= 0 {
		return
	}
	h.limit = limit
	h.trim()
}

// Clear empties both stacks.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

func (h *History) trim() {
	if over := len(h.undo) - h.limit; over > 0 {
		h.undo = append([]Command(nil), h.undo[over:]...)
	}
}
