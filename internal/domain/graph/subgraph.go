package graph

import (
	"brain2-canvas/internal/domain/shared"
)

// Subgraph is a detached set of node and edge snapshots. It is what delete
// and create commands record, what the clipboard carries and what Restore
// puts back.
type Subgraph struct {
	Nodes []NodeSnapshot `json:"nodes"`
	Edges []EdgeSnapshot `json:"edges"`
}

// IsEmpty reports whether the subgraph has no records.
func (g Subgraph) IsEmpty() bool {
	return len(g.Nodes) == 0 && len(g.Edges) == 0
}

// NodeIDs returns the node ids in capture order.
func (g Subgraph) NodeIDs() []shared.NodeID {
	ids := make([]shared.NodeID, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// EdgeIDs returns the edge ids in capture order.
func (g Subgraph) EdgeIDs() []shared.EdgeID {
	ids := make([]shared.EdgeID, 0, len(g.Edges))
	for _, e := range g.Edges {
		ids = append(ids, e.ID)
	}
	return ids
}

// Clone returns a deep copy.
func (g Subgraph) Clone() Subgraph {
	out := Subgraph{
		Nodes: make([]NodeSnapshot, 0, len(g.Nodes)),
		Edges: append([]EdgeSnapshot(nil), g.Edges...),
	}
	for _, n := range g.Nodes {
		out.Nodes = append(out.Nodes, n.Clone())
	}
	return out
}

// CaptureSubgraph snapshots the given nodes, every edge incident to them and
// the extra edges listed. Duplicates are ignored; order follows the input.
func (s *Store) CaptureSubgraph(nodeIDs []shared.NodeID, edgeIDs []shared.EdgeID) (Subgraph, error) {
	var sub Subgraph
	seenNodes := make(map[shared.NodeID]struct{}, len(nodeIDs))
	seenEdges := make(map[shared.EdgeID]struct{})

	addEdge := func(e *Edge) {
		if _, dup := seenEdges[e.id]; dup {
			return
		}
		seenEdges[e.id] = struct{}{}
		sub.Edges = append(sub.Edges, e.snapshot())
	}

	for _, id := range nodeIDs {
		if _, dup := seenNodes[id]; dup {
			continue
		}
		snap, err := s.Snapshot(id)
		if err != nil {
			return Subgraph{}, err
		}
		seenNodes[id] = struct{}{}
		sub.Nodes = append(sub.Nodes, snap)
		for _, e := range s.EdgesOf(id) {
			addEdge(e)
		}
	}
	for _, id := range edgeIDs {
		e, err := s.Edge(id)
		if err != nil {
			return Subgraph{}, err
		}
		addEdge(e)
	}
	return sub, nil
}

// Remove deletes the listed edges and nodes as one batch. Every id is
// checked before anything changes, so a failing call leaves the store
// untouched. The returned subgraph holds everything that was removed,
// including cascaded edges.
func (s *Store) Remove(nodeIDs []shared.NodeID, edgeIDs []shared.EdgeID) (Subgraph, error) {
	sub, err := s.CaptureSubgraph(nodeIDs, edgeIDs)
	if err != nil {
		return Subgraph{}, err
	}
	for _, e := range sub.Edges {
		if live, ok := s.edges[e.ID]; ok {
			s.detachEdge(live)
		}
	}
	for _, n := range sub.Nodes {
		if _, _, err := s.RemoveNode(n.ID); err != nil {
			return sub, err
		}
	}
	return sub, nil
}

// Restore re-inserts a subgraph with its original ids, geometry, sides and
// group membership. The whole batch is validated first: if any record
// collides or references a missing node, nothing is inserted.
func (s *Store) Restore(sub Subgraph) error {
	if err := s.checkRestore(sub); err != nil {
		return err
	}

	for _, snap := range sub.Nodes {
		n, err := nodeFromSnapshot(snap)
		if err != nil {
			return err
		}
		s.nodes[n.ID()] = n
		s.order = append(s.order, n.ID())
	}

	for _, snap := range sub.Nodes {
		if !snap.ParentID.IsZero() {
			if g, ok := s.nodes[snap.ParentID].(*Group); ok {
				s.attach(snap.ID, g)
			}
		}
	}
	for _, snap := range sub.Nodes {
		if snap.Kind != KindGroup {
			continue
		}
		g := s.nodes[snap.ID].(*Group)
		for _, mid := range snap.MemberIDs {
			if _, hasParent := s.parents[mid]; hasParent || !s.Has(mid) {
				continue
			}
			if mid == snap.ID || s.IsAncestor(mid, snap.ID) {
				continue
			}
			s.attach(mid, g)
		}
	}

	for _, snap := range sub.Edges {
		if _, err := s.AddEdge(snap.Spec()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) attach(id shared.NodeID, g *Group) {
	g.members[id] = struct{}{}
	s.parents[id] = g.id
}

func (s *Store) checkRestore(sub Subgraph) error {
	batch := make(map[shared.NodeID]struct{}, len(sub.Nodes))
	for _, snap := range sub.Nodes {
		if _, exists := s.nodes[snap.ID]; exists {
			return shared.ErrDuplicateID.WithDetails("node %s", snap.ID)
		}
		if _, dup := batch[snap.ID]; dup {
			return shared.ErrDuplicateID.WithDetails("node %s appears twice", snap.ID)
		}
		if snap.ID.IsZero() {
			return shared.ErrInvalidGeometry.WithDetails("node snapshot without id")
		}
		if err := validateBounds(snap.Bounds); err != nil {
			return err
		}
		batch[snap.ID] = struct{}{}
	}

	pairs := make(map[pairKey]struct{}, len(sub.Edges))
	edgeIDs := make(map[shared.EdgeID]struct{}, len(sub.Edges))
	for _, e := range sub.Edges {
		if e.From == e.To {
			return shared.ErrSelfLoop.WithDetails("node %s", e.From)
		}
		for _, end := range []shared.NodeID{e.From, e.To} {
			if _, inBatch := batch[end]; !inBatch && !s.Has(end) {
				return shared.ErrNodeNotFound.WithDetails("edge %s endpoint %s", e.ID, end)
			}
		}
		key := makePairKey(e.From, e.To)
		if _, dup := s.pairs[key]; dup {
			return shared.ErrDuplicateEdge.WithDetails("%s and %s", e.From, e.To)
		}
		if _, dup := pairs[key]; dup {
			return shared.ErrDuplicateEdge.WithDetails("%s and %s appear twice", e.From, e.To)
		}
		if _, dup := s.edges[e.ID]; dup {
			return shared.ErrDuplicateID.WithDetails("edge %s", e.ID)
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return shared.ErrDuplicateID.WithDetails("edge %s appears twice", e.ID)
		}
		pairs[key] = struct{}{}
		edgeIDs[e.ID] = struct{}{}
	}
	return nil
}
