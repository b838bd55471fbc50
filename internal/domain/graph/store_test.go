package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
)

func addCard(t *testing.T, s *Store, id string, x, y float64) *Card {
	t.Helper()
	c, err := NewCard(CardSpec{ID: shared.NodeID(id), Bounds: geometry.R(x, y, 200, 150), Text: "# " + id})
	require.NoError(t, err)
	require.NoError(t, s.AddNode(c))
	return c
}

func addGroup(t *testing.T, s *Store, id string, r geometry.Rect) *Group {
	t.Helper()
	g, err := NewGroup(GroupSpec{ID: shared.NodeID(id), Bounds: r, Label: id})
	require.NoError(t, err)
	require.NoError(t, s.AddNode(g))
	return g
}

func TestStore_AddNode(t *testing.T) {
	s := NewStore()
	addCard(t, s, "c1", 0, 0)

	dup, err := NewCard(CardSpec{ID: "c1", Bounds: geometry.R(10, 10, 200, 150)})
	require.NoError(t, err)
	err = s.AddNode(dup)
	assert.ErrorIs(t, err, shared.ErrDuplicateID)
	assert.Equal(t, 1, s.NodeCount())

	_, err = s.Card("missing")
	assert.True(t, errors.IsNotFound(err))

	addGroup(t, s, "g1", geometry.R(0, 0, 500, 500))
	_, err = s.Card("g1")
	assert.ErrorIs(t, err, shared.ErrNotACard)
	_, err = s.Group("c1")
	assert.ErrorIs(t, err, shared.ErrNotAGroup)
}

func TestNewCard_InvalidGeometry(t *testing.T) {
	tests := []struct {
		name   string
		bounds geometry.Rect
	}{
		{"zero width", geometry.R(0, 0, 0, 150)},
		{"negative height", geometry.R(0, 0, 200, -1)},
		{"infinite x", geometry.Rect{X: inf(), Width: 200, Height: 150}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCard(CardSpec{Bounds: tt.bounds})
			assert.ErrorIs(t, err, shared.ErrInvalidGeometry)
		})
	}
}

func TestCard_Title(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"", "Untitled"},
		{"## Heading\nbody", "Heading"},
		{"plain first line\nsecond", "plain first line"},
		{"0123456789012345678901234567890123456789012345678901234", "01234567890123456789012345678901234567890123456789"},
	}
	for _, tt := range tests {
		c, err := NewCard(CardSpec{Bounds: geometry.R(0, 0, 200, 150), Text: tt.text})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, c.Title())
	}
}

func TestStore_AddEdge(t *testing.T) {
	s := NewStore()
	addCard(t, s, "a", 0, 0)
	addCard(t, s, "b", 400, 0)

	e, err := s.AddEdge(EdgeSpec{ID: "e1", From: "a", To: "b"})
	require.NoError(t, err)
	assert.Equal(t, geometry.SideRight, e.FromSide())
	assert.Equal(t, geometry.SideLeft, e.ToSide())
	assert.Equal(t, shared.DefaultEdgeColor, e.Color())

	t.Run("duplicate in either direction keeps exactly one edge", func(t *testing.T) {
		_, err := s.AddEdge(EdgeSpec{From: "a", To: "b"})
		assert.ErrorIs(t, err, shared.ErrDuplicateEdge)
		_, err = s.AddEdge(EdgeSpec{From: "b", To: "a"})
		assert.ErrorIs(t, err, shared.ErrDuplicateEdge)
		assert.True(t, shared.IsSilentRejection(err))
		assert.Equal(t, 1, s.EdgeCount())
	})

	t.Run("self loop", func(t *testing.T) {
		_, err := s.AddEdge(EdgeSpec{From: "a", To: "a"})
		assert.ErrorIs(t, err, shared.ErrSelfLoop)
		assert.True(t, shared.IsSilentRejection(err))
	})

	t.Run("missing endpoint", func(t *testing.T) {
		_, err := s.AddEdge(EdgeSpec{From: "a", To: "zzz"})
		assert.ErrorIs(t, err, shared.ErrNodeNotFound)
	})

	got, ok := s.EdgeBetween("b", "a")
	require.True(t, ok)
	assert.Equal(t, shared.EdgeID("e1"), got.ID())
	assert.Len(t, s.EdgesOf("a"), 1)
}

func TestStore_MoveReroutesAdjacentEdges(t *testing.T) {
	s := NewStore()
	addCard(t, s, "c1", 0, 0)
	addCard(t, s, "c2", 400, 0)
	e, err := s.AddEdge(EdgeSpec{From: "c1", To: "c2"})
	require.NoError(t, err)

	for _, p := range e.Points()[1 : len(e.Points())-1] {
		assert.GreaterOrEqual(t, p.X, 200.0)
		assert.LessOrEqual(t, p.X, 400.0)
	}

	rerouted, err := s.Move("c2", 0, 400)
	require.NoError(t, err)
	require.Len(t, rerouted, 1)
	assert.Equal(t, geometry.SideBottom, e.FromSide())
	assert.Equal(t, geometry.SideTop, e.ToSide())
	points := e.Points()
	assert.Equal(t, geometry.Pt(100, 150), points[0])
	assert.Equal(t, geometry.Pt(100, 400), points[len(points)-1])
}

func TestStore_SetStandOffReroutesEdges(t *testing.T) {
	s := NewStore()
	addCard(t, s, "c1", 0, 0)
	addCard(t, s, "c2", 400, 0)
	e, err := s.AddEdge(EdgeSpec{From: "c1", To: "c2"})
	require.NoError(t, err)
	start := e.Points()[0]

	rerouted := s.SetStandOff(40)
	require.Len(t, rerouted, 1)
	assert.Equal(t, 40.0, s.StandOff())
	points := e.Points()
	assert.Equal(t, start, points[0])
	assert.Equal(t, start.X+40, points[1].X)

	assert.Nil(t, s.SetStandOff(40), "unchanged offset")
	assert.Nil(t, s.SetStandOff(-1))
	assert.Equal(t, 40.0, s.StandOff())
}

func TestStore_Resize(t *testing.T) {
	s := NewStore()
	addCard(t, s, "c1", 10, 20)

	size, _, err := s.Resize("c1", 50, 400)
	require.NoError(t, err)
	assert.Equal(t, geometry.Size{Width: 200, Height: 400}, size)

	n, err := s.Node("c1")
	require.NoError(t, err)
	assert.Equal(t, geometry.R(10, 20, 200, 400), n.Bounds(), "top-left stays fixed")

	_, _, err = s.Resize("c1", nan(), 10)
	assert.ErrorIs(t, err, shared.ErrInvalidGeometry)
}

func TestStore_RemoveNodeCascadesEdges(t *testing.T) {
	s := NewStore()
	addCard(t, s, "a", 0, 0)
	addCard(t, s, "b", 400, 0)
	addCard(t, s, "c", 0, 400)
	_, err := s.AddEdge(EdgeSpec{ID: "ab", From: "a", To: "b"})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeSpec{ID: "ac", From: "a", To: "c"})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeSpec{ID: "bc", From: "b", To: "c"})
	require.NoError(t, err)

	snap, edges, err := s.RemoveNode("a")
	require.NoError(t, err)
	assert.Equal(t, shared.NodeID("a"), snap.ID)
	assert.Len(t, edges, 2)
	assert.Equal(t, 1, s.EdgeCount())
	assert.Equal(t, shared.EdgeID("bc"), s.EdgesOf("b")[0].ID())

	_, err = s.Edge("ab")
	assert.ErrorIs(t, err, shared.ErrEdgeNotFound)
}

func TestStore_RerouteDropsStaleEdges(t *testing.T) {
	s := NewStore()
	addCard(t, s, "a", 0, 0)
	addCard(t, s, "b", 400, 0)
	_, err := s.AddEdge(EdgeSpec{ID: "ab", From: "a", To: "b"})
	require.NoError(t, err)

	// Simulate a record disappearing underneath the index.
	delete(s.nodes, "b")

	rerouted, err := s.Move("a", 50, 50)
	require.NoError(t, err)
	assert.Empty(t, rerouted)
	assert.Equal(t, 0, s.EdgeCount())
}

func TestStore_Membership(t *testing.T) {
	s := NewStore()
	addGroup(t, s, "outer", geometry.R(0, 0, 1000, 1000))
	addGroup(t, s, "inner", geometry.R(10, 10, 500, 500))
	addCard(t, s, "c", 20, 20)

	require.NoError(t, s.SetParent("inner", "outer"))
	require.NoError(t, s.SetParent("c", "inner"))

	assert.True(t, s.IsAncestor("outer", "c"))
	assert.ElementsMatch(t, []shared.NodeID{"inner", "c"}, s.Descendants("outer"))

	err := s.SetParent("outer", "inner")
	assert.ErrorIs(t, err, shared.ErrMembershipCycle)
	err = s.SetParent("outer", "outer")
	assert.ErrorIs(t, err, shared.ErrMembershipCycle)

	require.NoError(t, s.SetParent("c", "outer"))
	inner, err := s.Group("inner")
	require.NoError(t, err)
	assert.False(t, inner.HasMember("c"), "a node has at most one parent")

	require.NoError(t, s.SetParent("c", ""))
	_, ok := s.ParentOf("c")
	assert.False(t, ok)
}

func TestStore_SetCollapsedHidesDirectMembers(t *testing.T) {
	s := NewStore()
	addGroup(t, s, "g", geometry.R(0, 0, 1000, 1000))
	addCard(t, s, "a", 10, 50)
	addCard(t, s, "b", 300, 50)
	require.NoError(t, s.SetParent("a", "g"))
	require.NoError(t, s.SetParent("b", "g"))

	members, err := s.SetCollapsed("g", true)
	require.NoError(t, err)
	assert.Equal(t, []shared.NodeID{"a", "b"}, members)

	a, _ := s.Node("a")
	assert.True(t, a.Hidden())

	_, err = s.SetCollapsed("g", false)
	require.NoError(t, err)
	assert.False(t, a.Hidden())
}

func TestStore_LeavingCollapsedGroupShowsNode(t *testing.T) {
	s := NewStore()
	addGroup(t, s, "g", geometry.R(0, 0, 1000, 1000))
	addGroup(t, s, "open", geometry.R(2000, 0, 1000, 1000))
	a := addCard(t, s, "a", 400, 400)
	require.NoError(t, s.SetParent("a", "g"))
	_, err := s.SetCollapsed("g", true)
	require.NoError(t, err)
	require.True(t, a.Hidden())

	require.NoError(t, s.SetParent("a", ""))
	assert.False(t, a.Hidden(), "a parentless node is never hidden")

	require.NoError(t, s.SetParent("a", "g"))
	assert.True(t, a.Hidden(), "joining a collapsed group hides")

	require.NoError(t, s.SetParent("a", "open"))
	assert.False(t, a.Hidden(), "moving to an expanded group shows")
}

func TestStore_EditCard(t *testing.T) {
	s := NewStore()
	addCard(t, s, "a", 0, 0)

	old, err := s.EditCard("a", Content{Text: "new", Tags: []string{"b", "a", "a"}, Color: "#fff"})
	require.NoError(t, err)
	assert.Equal(t, "# a", old.Text)

	c, _ := s.Card("a")
	assert.Equal(t, []string{"a", "b"}, c.Tags())
	assert.Equal(t, "#fff", c.Color())
}

func TestStore_RemoveAndRestoreGroupSubgraph(t *testing.T) {
	s := NewStore()
	addGroup(t, s, "g", geometry.R(0, 0, 1200, 600))
	addCard(t, s, "m1", 30, 60)
	addCard(t, s, "m2", 400, 60)
	addCard(t, s, "m3", 800, 60)
	addCard(t, s, "outside", 2000, 60)
	for _, id := range []shared.NodeID{"m1", "m2", "m3"} {
		require.NoError(t, s.SetParent(id, "g"))
	}
	_, err := s.AddEdge(EdgeSpec{ID: "e12", From: "m1", To: "m2"})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeSpec{ID: "e23", From: "m2", To: "m3"})
	require.NoError(t, err)
	_, err = s.AddEdge(EdgeSpec{ID: "e3o", From: "m3", To: "outside"})
	require.NoError(t, err)

	ids := append([]shared.NodeID{"g"}, s.Descendants("g")...)
	before, err := s.CaptureSubgraph(ids, nil)
	require.NoError(t, err)

	removed, err := s.Remove(ids, nil)
	require.NoError(t, err)
	assert.Equal(t, before, removed)
	assert.Equal(t, 1, s.NodeCount())
	assert.Equal(t, 0, s.EdgeCount())

	require.NoError(t, s.Restore(removed))
	after, err := s.CaptureSubgraph(ids, nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	g, _ := s.Group("g")
	assert.Equal(t, []shared.NodeID{"m1", "m2", "m3"}, g.MemberIDs())
}

func TestStore_RestoreIsAtomic(t *testing.T) {
	s := NewStore()
	addCard(t, s, "a", 0, 0)

	sub := Subgraph{
		Nodes: []NodeSnapshot{{ID: "b", Kind: KindCard, Bounds: geometry.R(400, 0, 200, 150)}},
		Edges: []EdgeSnapshot{
			{ID: "ab", From: "a", To: "b"},
			{ID: "ax", From: "a", To: "missing"},
		},
	}
	err := s.Restore(sub)
	assert.ErrorIs(t, err, shared.ErrNodeNotFound)
	assert.False(t, s.Has("b"))
	assert.Equal(t, 0, s.EdgeCount())

	err = s.Restore(Subgraph{Nodes: []NodeSnapshot{{ID: "a", Kind: KindCard, Bounds: geometry.R(0, 0, 200, 150)}}})
	assert.ErrorIs(t, err, shared.ErrDuplicateID)
}

func TestStore_BringToFront(t *testing.T) {
	s := NewStore()
	addCard(t, s, "a", 0, 0)
	addCard(t, s, "b", 0, 0)
	require.NoError(t, s.BringToFront("a"))

	nodes := s.Nodes()
	assert.Equal(t, shared.NodeID("b"), nodes[0].ID())
	assert.Equal(t, shared.NodeID("a"), nodes[1].ID())
}

func inf() float64 { return math.Inf(1) }

func nan() float64 { return math.NaN() }
