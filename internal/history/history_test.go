package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
)

func newStore(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore()
	for i, id := range []string{"a", "b"} {
		c, err := graph.NewCard(graph.CardSpec{ID: shared.NodeID(id), Bounds: geometry.R(float64(i)*400, 0, 200, 150), Text: id})
		require.NoError(t, err)
		require.NoError(t, s.AddNode(c))
	}
	return s
}

func storeApply(s *graph.Store) ApplyFunc {
	return func(cmd Command, dir Direction) error {
		return Apply(s, cmd, dir)
	}
}

func moveCmd(i int) Command {
	return NewMove(fmt.Sprintf("move %d", i), []PositionChange{{ID: "a", From: geometry.Pt(0, 0), To: geometry.Pt(float64(i), 0)}}, nil)
}

func TestHistory_UndoRedoRoundTrip(t *testing.T) {
	s := newStore(t)
	h := New(storeApply(s))

	_, err := s.Move("a", 40, 60)
	require.NoError(t, err)
	after, _ := s.Node("a")
	afterBounds := after.Bounds()
	require.True(t, h.Push(NewMove("Move card", []PositionChange{{ID: "a", From: geometry.Pt(0, 0), To: geometry.Pt(40, 60)}}, nil)))

	_, err = h.Undo()
	require.NoError(t, err)
	n, _ := s.Node("a")
	assert.Equal(t, geometry.Pt(0, 0), n.Bounds().Position())

	_, err = h.Redo()
	require.NoError(t, err)
	n, _ = s.Node("a")
	assert.Equal(t, afterBounds, n.Bounds())
	assert.Equal(t, 1, h.UndoLen())
	assert.Equal(t, 0, h.RedoLen())
}

func TestHistory_PushClearsRedo(t *testing.T) {
	s := newStore(t)
	h := New(storeApply(s))
	h.Push(moveCmd(1))
	_, err := h.Undo()
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	h.Push(moveCmd(2))
	assert.False(t, h.CanRedo())
}

func TestHistory_BoundedTo50(t *testing.T) {
	h := New(func(Command, Direction) error { return nil })
	for i := 0; i < 60; i++ {
		h.Push(moveCmd(i))
	}
	require.Equal(t, 50, h.UndoLen())
	stack := h.UndoStack()
	assert.Equal(t, "move 10", stack[0].Description)
	assert.Equal(t, "move 59", stack[49].Description)
}

func TestHistory_BoundProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 80).Draw(t, "limit")
		n := rapid.IntRange(0, 200).Draw(t, "n")
		h := New(func(Command, Direction) error { return nil }, WithLimit(limit))
		for i := 0; i < n; i++ {
			h.Push(moveCmd(i))
		}
		want := n
		if want > limit {
			want = limit
		}
		if h.UndoLen() != want {
			t.Fatalf("undo len %d, want %d", h.UndoLen(), want)
		}
		stack := h.UndoStack()
		for i, cmd := range stack {
			if cmd.Description != fmt.Sprintf("move %d", n-want+i) {
				t.Fatalf("entry %d is %q", i, cmd.Description)
			}
		}
	})
}

func TestHistory_EmptyStacks(t *testing.T) {
	var notices []shared.Notice
	h := New(func(Command, Direction) error { return nil }, WithNotifier(func(n shared.Notice) { notices = append(notices, n) }))

	_, err := h.Undo()
	assert.ErrorIs(t, err, shared.ErrNothingToUndo)
	_, err = h.Redo()
	assert.ErrorIs(t, err, shared.ErrNothingToRedo)
	require.Len(t, notices, 2)
	assert.Equal(t, "Nothing to undo", notices[0].Message)
}

func TestHistory_FailedUndoDropsCommand(t *testing.T) {
	s := newStore(t)
	var notices []shared.Notice
	var observed []string
	h := New(storeApply(s),
		WithNotifier(func(n shared.Notice) { notices = append(notices, n) }),
		WithObserver(func(op string, ok bool) { observed = append(observed, fmt.Sprintf("%s:%v", op, ok)) }),
	)
	h.Push(moveCmd(1))
	h.Push(NewMove("Move ghost", []PositionChange{{ID: "ghost", To: geometry.Pt(1, 1)}}, nil))

	_, err := h.Undo()
	assert.ErrorIs(t, err, shared.ErrReplayFailed)
	assert.ErrorIs(t, err, shared.ErrNodeNotFound)
	assert.Equal(t, 1, h.UndoLen(), "failed command is dropped")
	assert.Equal(t, 0, h.RedoLen(), "and not moved to redo")
	assert.Equal(t, shared.NoticeError, notices[len(notices)-1].Level)
	assert.Equal(t, []string{"undo:false"}, observed)

	_, err = h.Undo()
	assert.NoError(t, err, "the stack below stays usable")
}

func TestHistory_FailedUndoLeavesStoreUntouched(t *testing.T) {
	s := newStore(t)
	h := New(storeApply(s))
	h.Push(NewMove("Move two", []PositionChange{
		{ID: "a", From: geometry.Pt(-100, -100), To: geometry.Pt(0, 0)},
		{ID: "ghost", From: geometry.Pt(5, 5)},
	}, nil))

	_, err := h.Undo()
	require.Error(t, err)
	a, _ := s.Node("a")
	assert.Equal(t, geometry.Pt(0, 0), a.Bounds().Position())
}

func TestHistory_PanicDuringReplayIsContained(t *testing.T) {
	h := New(func(Command, Direction) error { panic("boom") })
	h.Push(moveCmd(1))
	_, err := h.Undo()
	assert.ErrorIs(t, err, shared.ErrReplayFailed)
	assert.False(t, h.Replaying())
}

func TestHistory_ReplayIsNotRecorded(t *testing.T) {
	var h *History
	h = New(func(cmd Command, dir Direction) error {
		assert.True(t, h.Replaying())
		assert.False(t, h.Push(moveCmd(99)), "recording is suppressed during replay")
		return nil
	})
	h.Push(moveCmd(1))

	_, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, 0, h.UndoLen())
	assert.Equal(t, 1, h.RedoLen())

	_, err = h.Redo()
	require.NoError(t, err)
	assert.Equal(t, 1, h.UndoLen())
	assert.True(t, h.Push(moveCmd(2)), "recording resumes after replay")
}

func TestHistory_SetLimitTrims(t *testing.T) {
	h := New(func(Command, Direction) error { return nil })
	for i := 0; i < 10; i++ {
		h.Push(moveCmd(i))
	}
	h.SetLimit(3)
	assert.Equal(t, 3, h.UndoLen())
	assert.Equal(t, "move 7", h.UndoStack()[0].Description)

	h.Clear()
	assert.False(t, h.CanUndo())
}

func TestHistory_EmptyCommandIsIgnored(t *testing.T) {
	h := New(func(Command, Direction) error { return nil })
	assert.False(t, h.Push(NewMove("nothing", nil, nil)))
	assert.Equal(t, 0, h.UndoLen())
}
