package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
)

func TestApply_Resize(t *testing.T) {
	s := newStore(t)
	cmd := NewResize("Resize card", SizeChange{ID: "a", From: geometry.Size{Width: 200, Height: 150}, To: geometry.Size{Width: 400, Height: 300}})

	require.NoError(t, Apply(s, cmd, Forward))
	a, _ := s.Node("a")
	assert.Equal(t, geometry.R(0, 0, 400, 300), a.Bounds())

	require.NoError(t, Apply(s, cmd, Backward))
	assert.Equal(t, geometry.R(0, 0, 200, 150), a.Bounds())
}

func TestApply_Edit(t *testing.T) {
	s := newStore(t)
	before := graph.Content{Text: "a"}
	after := graph.Content{Text: "# Renamed", Tags: []string{"x"}, Color: "#ff0000"}
	cmd := NewEdit("Edit card", ContentChange{ID: "a", From: before, To: after})

	after.Tags[0] = "mutated"
	require.NoError(t, Apply(s, cmd, Forward))
	c, _ := s.Card("a")
	assert.Equal(t, []string{"x"}, c.Tags(), "commands hold their own copies")
	assert.Equal(t, "Renamed", c.Title())

	require.NoError(t, Apply(s, cmd, Backward))
	assert.Equal(t, before.Text, c.Text())
	assert.Empty(t, c.Tags())
}

func TestApply_MoveRestoresMembership(t *testing.T) {
	s := newStore(t)
	g, err := graph.NewGroup(graph.GroupSpec{ID: "g", Bounds: geometry.R(-50, -50, 1000, 1000)})
	require.NoError(t, err)
	require.NoError(t, s.AddNode(g))
	require.NoError(t, s.SetParent("a", "g"))

	cmd := NewMove("Move card", []PositionChange{{ID: "a", From: geometry.Pt(0, 0), To: geometry.Pt(2000, 0)}},
		[]ParentChange{{ID: "a", From: "g"}})

	require.NoError(t, Apply(s, cmd, Forward))
	_, grouped := s.ParentOf("a")
	assert.False(t, grouped)

	require.NoError(t, Apply(s, cmd, Backward))
	parent, grouped := s.ParentOf("a")
	assert.True(t, grouped)
	assert.Equal(t, shared.NodeID("g"), parent)
}

func addGroup(t *testing.T, s *graph.Store, id string, r geometry.Rect) {
	t.Helper()
	g, err := graph.NewGroup(graph.GroupSpec{ID: shared.NodeID(id), Bounds: r})
	require.NoError(t, err)
	require.NoError(t, s.AddNode(g))
}

func TestApply_MissingParentGroupChangesNothing(t *testing.T) {
	s := newStore(t)
	addGroup(t, s, "g", geometry.R(-50, -50, 1000, 1000))
	require.NoError(t, s.SetParent("a", "g"))

	cmd := NewMove("Move card", []PositionChange{{ID: "a", From: geometry.Pt(0, 0), To: geometry.Pt(3000, 3000)}},
		[]ParentChange{{ID: "a", From: "g"}})
	require.NoError(t, Apply(s, cmd, Forward))
	_, err := s.Remove([]shared.NodeID{"g"}, nil)
	require.NoError(t, err)

	err = Apply(s, cmd, Backward)
	assert.ErrorIs(t, err, shared.ErrNodeNotFound)
	a, _ := s.Node("a")
	assert.Equal(t, geometry.Pt(3000, 3000), a.Bounds().Position())
	_, grouped := s.ParentOf("a")
	assert.False(t, grouped)
}

func TestApply_RejectedParentChangeRollsBack(t *testing.T) {
	s := newStore(t)
	addGroup(t, s, "outer", geometry.R(-100, -100, 2000, 2000))
	addGroup(t, s, "inner", geometry.R(-50, -50, 1000, 1000))
	require.NoError(t, s.SetParent("inner", "outer"))

	// The second change would make outer its own descendant.
	cmd := NewMove("Move cards", []PositionChange{{ID: "a", From: geometry.Pt(0, 0), To: geometry.Pt(10, 10)}},
		[]ParentChange{{ID: "a", To: "inner"}, {ID: "outer", To: "inner"}})

	err := Apply(s, cmd, Forward)
	assert.ErrorIs(t, err, shared.ErrMembershipCycle)
	a, _ := s.Node("a")
	assert.Equal(t, geometry.Pt(0, 0), a.Bounds().Position())
	_, grouped := s.ParentOf("a")
	assert.False(t, grouped, "earlier membership changes are undone")
	_, grouped = s.ParentOf("outer")
	assert.False(t, grouped)
}

func TestApply_ParentMustBeGroup(t *testing.T) {
	s := newStore(t)
	cmd := NewMove("Move card", []PositionChange{{ID: "a", From: geometry.Pt(0, 0), To: geometry.Pt(10, 10)}},
		[]ParentChange{{ID: "a", To: "b"}})

	err := Apply(s, cmd, Forward)
	assert.ErrorIs(t, err, shared.ErrNotAGroup)
	a, _ := s.Node("a")
	assert.Equal(t, geometry.Pt(0, 0), a.Bounds().Position())
}

func TestApply_CreateAndDeleteAreInverse(t *testing.T) {
	s := newStore(t)
	c, err := graph.NewCard(graph.CardSpec{ID: "c", Bounds: geometry.R(0, 400, 200, 150)})
	require.NoError(t, err)
	require.NoError(t, s.AddNode(c))
	_, err = s.AddEdge(graph.EdgeSpec{ID: "ac", From: "a", To: "c"})
	require.NoError(t, err)

	sub, err := s.CaptureSubgraph([]shared.NodeID{"c"}, nil)
	require.NoError(t, err)
	create := NewCreate("Create card", sub)
	del := NewDelete("Delete card", sub)

	require.NoError(t, Apply(s, create, Backward))
	assert.False(t, s.Has("c"))
	assert.Equal(t, 0, s.EdgeCount())

	require.NoError(t, Apply(s, del, Backward))
	assert.True(t, s.Has("c"))
	assert.Equal(t, 1, s.EdgeCount())

	require.NoError(t, Apply(s, del, Forward))
	assert.False(t, s.Has("c"))

	require.NoError(t, Apply(s, create, Forward))
	assert.True(t, s.Has("c"))
}

func TestApply_UnknownKind(t *testing.T) {
	err := Apply(newStore(t), Command{Kind: "teleport", Moves: []PositionChange{{ID: "a"}}}, Forward)
	assert.Error(t, err)
}

// Deleting a group with three members removes the members and every edge
// touching them; one undo brings all of it back unchanged.
func TestDeleteGroupThenUndo(t *testing.T) {
	s := graph.NewStore()
	g, err := graph.NewGroup(graph.GroupSpec{ID: "g", Bounds: geometry.R(0, 0, 1300, 300), Label: "Team"})
	require.NoError(t, err)
	require.NoError(t, s.AddNode(g))
	for i, id := range []shared.NodeID{"m1", "m2", "m3"} {
		c, err := graph.NewCard(graph.CardSpec{ID: id, Bounds: geometry.R(30+float64(i)*420, 60, 200, 150), Tags: []string{"t"}})
		require.NoError(t, err)
		require.NoError(t, s.AddNode(c))
		require.NoError(t, s.SetParent(id, "g"))
	}
	ext, err := graph.NewCard(graph.CardSpec{ID: "ext", Bounds: geometry.R(0, 800, 200, 150)})
	require.NoError(t, err)
	require.NoError(t, s.AddNode(ext))

	for _, e := range []graph.EdgeSpec{
		{ID: "e1", From: "m1", To: "m2", Label: "next"},
		{ID: "e2", From: "m2", To: "m3", Color: "#ff0000"},
		{ID: "e3", From: "ext", To: "m1"},
		{ID: "e4", From: "g", To: "ext"},
	} {
		_, err := s.AddEdge(e)
		require.NoError(t, err)
	}

	ids := append([]shared.NodeID{"g"}, s.Descendants("g")...)
	before, err := s.CaptureSubgraph(ids, nil)
	require.NoError(t, err)
	require.Len(t, before.Nodes, 4)
	require.Len(t, before.Edges, 4)

	h := New(storeApply(s))
	removed, err := s.Remove(ids, nil)
	require.NoError(t, err)
	h.Push(NewDelete("Delete group", removed))

	assert.Equal(t, 1, s.NodeCount())
	assert.Equal(t, 0, s.EdgeCount())

	_, err = h.Undo()
	require.NoError(t, err)

	after, err := s.CaptureSubgraph(ids, nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 4, s.EdgeCount())
	for _, e := range before.Edges {
		live, err := s.Edge(e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.Label, live.Label())
	}
}

func TestApply_CreateGroupAroundMembers(t *testing.T) {
	s := newStore(t)
	outer, err := graph.NewGroup(graph.GroupSpec{ID: "outer", Bounds: geometry.R(-100, -100, 2000, 1000)})
	require.NoError(t, err)
	require.NoError(t, s.AddNode(outer))
	require.NoError(t, s.SetParent("a", "outer"))

	sub := graph.Subgraph{Nodes: []graph.NodeSnapshot{{
		ID: "inner", Kind: graph.KindGroup, Bounds: geometry.R(-30, -30, 260, 246), ParentID: "outer",
	}}}
	cmd := NewCreate("Group cards", sub).WithParents([]ParentChange{{ID: "a", From: "outer", To: "inner"}})

	require.NoError(t, Apply(s, cmd, Forward))
	parent, _ := s.ParentOf("a")
	assert.Equal(t, shared.NodeID("inner"), parent)
	parent, _ = s.ParentOf("inner")
	assert.Equal(t, shared.NodeID("outer"), parent)

	require.NoError(t, Apply(s, cmd, Backward))
	assert.False(t, s.Has("inner"))
	parent, _ = s.ParentOf("a")
	assert.Equal(t, shared.NodeID("outer"), parent, "undo puts the card back in its old group")
}
