package containment

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	canvas "brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
)

// MembershipGraph is a read-only directed view of group membership: an edge
// runs from each group to each of its direct members.
type MembershipGraph struct {
	g   *simple.DirectedGraph
	ids map[shared.NodeID]int64
	rev map[int64]shared.NodeID
}

// BuildMembershipGraph snapshots the membership relation of a store.
func BuildMembershipGraph(store *canvas.Store) *MembershipGraph {
	m := &MembershipGraph{
		g:   simple.NewDirectedGraph(),
		ids: make(map[shared.NodeID]int64),
		rev: make(map[int64]shared.NodeID),
	}
	for _, n := range store.Nodes() {
		m.node(n.ID())
	}
	for _, grp := range store.Groups() {
		from := m.g.Node(m.ids[grp.ID()])
		for _, member := range grp.MemberIDs() {
			if member == grp.ID() {
				continue
			}
			to := m.g.Node(m.node(member))
			m.g.SetEdge(m.g.NewEdge(from, to))
		}
	}
	return m
}

func (m *MembershipGraph) node(id shared.NodeID) int64 {
	if nid, ok := m.ids[id]; ok {
		return nid
	}
	n := m.g.NewNode()
	m.g.AddNode(n)
	m.ids[id] = n.ID()
	m.rev[n.ID()] = id
	return n.ID()
}

// Reaches reports whether descendant can be reached from ancestor by
// following membership.
func (m *MembershipGraph) Reaches(ancestor, descendant shared.NodeID) bool {
	a, okA := m.ids[ancestor]
	d, okD := m.ids[descendant]
	if !okA || !okD || a == d {
		return false
	}
	return topo.PathExistsIn(m.g, m.g.Node(a), m.g.Node(d))
}

// OuterFirst returns every node ordered so that a group precedes its members.
// Nodes at the same depth keep id order.
func (m *MembershipGraph) OuterFirst() ([]shared.NodeID, error) {
	sorted, err := topo.SortStabilized(m.g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool {
			return m.rev[nodes[i].ID()] < m.rev[nodes[j].ID()]
		})
	})
	if err != nil {
		return nil, shared.ErrMembershipCycle.WithDetails("%v", err)
	}
	out := make([]shared.NodeID, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, m.rev[n.ID()])
	}
	return out, nil
}

// Cycles lists membership cycles. A consistent store has none; imported
// boards are checked with this before they are accepted.
func (m *MembershipGraph) Cycles() [][]shared.NodeID {
	var out [][]shared.NodeID
	for _, cycle := range topo.DirectedCyclesIn(m.g) {
		ids := make([]shared.NodeID, 0, len(cycle))
		for _, n := range cycle {
			ids = append(ids, m.rev[n.ID()])
		}
		out = append(out, ids)
	}
	return out
}
