package graph

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/shared"
)

// Store exclusively owns node and edge records. Besides the records it keeps
// three indexes that are updated incrementally:
//   - adjacency: node id -> incident edge ids, so rerouting is O(degree)
//   - pairs: unordered endpoint pair -> edge id, so duplicates are O(1)
//   - parents: node id -> containing group id, mirroring Group.members
//
// The store is not safe for concurrent use; the orchestrator is its only
// mutator.
type Store struct {
	nodes     map[shared.NodeID]Node
	order     []shared.NodeID
	edges     map[shared.EdgeID]*Edge
	edgeOrder []shared.EdgeID
	pairs     map[pairKey]shared.EdgeID
	adjacency map[shared.NodeID]map[shared.EdgeID]struct{}
	parents   map[shared.NodeID]shared.NodeID

	standOff float64
	logger   *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStandOff overrides the route stand-off distance.
func WithStandOff(offset float64) Option {
	return func(s *Store) {
		if offset > 0 {
			s.standOff = offset
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		nodes:     make(map[shared.NodeID]Node),
		edges:     make(map[shared.EdgeID]*Edge),
		pairs:     make(map[pairKey]shared.EdgeID),
		adjacency: make(map[shared.NodeID]map[shared.EdgeID]struct{}),
		parents:   make(map[shared.NodeID]shared.NodeID),
		standOff:  shared.RouteStandOff,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StandOff returns the route stand-off distance in use.
func (s *Store) StandOff() float64 {
	return s.standOff
}

// SetStandOff changes the route stand-off distance and reroutes every edge.
// Non-positive offsets are ignored.
func (s *Store) SetStandOff(offset float64) []*Edge {
	if offset <= 0 || offset == s.standOff {
		return nil
	}
	s.standOff = offset
	rerouted := make([]*Edge, 0, len(s.edgeOrder))
	for _, id := range s.edgeOrder {
		e := s.edges[id]
		from, fromOK := s.nodes[e.from]
		to, toOK := s.nodes[e.to]
		if !fromOK || !toOK {
			continue
		}
		e.applyRoute(geometry.RouteBetween(from.Bounds(), to.Bounds(), s.standOff))
		rerouted = append(rerouted, e)
	}
	return rerouted
}

// ============================================================================
// NODES
// ============================================================================

// AddNode inserts a node. It fails with ErrDuplicateID if the id is taken.
func (s *Store) AddNode(n Node) error {
	if n == nil {
		return shared.ErrInvalidGeometry.WithDetails("nil node")
	}
	if _, exists := s.nodes[n.ID()]; exists {
		return shared.ErrDuplicateID.WithDetails("node %s", n.ID())
	}
	s.nodes[n.ID()] = n
	s.order = append(s.order, n.ID())
	return nil
}

// Has reports whether a node with id exists.
func (s *Store) Has(id shared.NodeID) bool {
	_, ok := s.nodes[id]
	return ok
}

// Node returns the node with id.
func (s *Store) Node(id shared.NodeID) (Node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, shared.ErrNodeNotFound.WithDetails("node %s", id)
	}
	return n, nil
}

// Card returns the card with id.
func (s *Store) Card(id shared.NodeID) (*Card, error) {
	n, err := s.Node(id)
	if err != nil {
		return nil, err
	}
	c, ok := n.(*Card)
	if !ok {
		return nil, shared.ErrNotACard.WithDetails("node %s", id)
	}
	return c, nil
}

// Group returns the group with id.
func (s *Store) Group(id shared.NodeID) (*Group, error) {
	n, err := s.Node(id)
	if err != nil {
		return nil, err
	}
	g, ok := n.(*Group)
	if !ok {
		return nil, shared.ErrNotAGroup.WithDetails("node %s", id)
	}
	return g, nil
}

// Nodes returns every node in paint order (back to front).
func (s *Store) Nodes() []Node {
	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Cards returns every card in paint order.
func (s *Store) Cards() []*Card {
	var out []*Card
	for _, id := range s.order {
		if c, ok := s.nodes[id].(*Card); ok {
			out = append(out, c)
		}
	}
	return out
}

// Groups returns every group in paint order.
func (s *Store) Groups() []*Group {
	var out []*Group
	for _, id := range s.order {
		if g, ok := s.nodes[id].(*Group); ok {
			out = append(out, g)
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// BringToFront moves a node to the end of the paint order.
func (s *Store) BringToFront(id shared.NodeID) error {
	if !s.Has(id) {
		return shared.ErrNodeNotFound.WithDetails("node %s", id)
	}
	s.order = append(removeID(s.order, id), id)
	return nil
}

// Snapshot captures a node, including its current parent group.
func (s *Store) Snapshot(id shared.NodeID) (NodeSnapshot, error) {
	n, err := s.Node(id)
	if err != nil {
		return NodeSnapshot{}, err
	}
	snap := n.snapshot()
	snap.ParentID = s.parents[id]
	return snap, nil
}

// ============================================================================
// GEOMETRY
// ============================================================================

// UpdateGeometry replaces a node's bounds and reroutes every incident edge.
// It returns the rerouted edges.
func (s *Store) UpdateGeometry(id shared.NodeID, bounds geometry.Rect) ([]*Edge, error) {
	n, err := s.Node(id)
	if err != nil {
		return nil, err
	}
	if err := validateBounds(bounds); err != nil {
		return nil, err
	}
	n.setBounds(bounds)
	return s.Reroute(id), nil
}

// Move places a node's top-left corner at (x, y).
func (s *Store) Move(id shared.NodeID, x, y float64) ([]*Edge, error) {
	n, err := s.Node(id)
	if err != nil {
		return nil, err
	}
	return s.UpdateGeometry(id, n.Bounds().MoveTo(geometry.Pt(x, y)))
}

// Translate moves a node by (dx, dy).
func (s *Store) Translate(id shared.NodeID, dx, dy float64) ([]*Edge, error) {
	n, err := s.Node(id)
	if err != nil {
		return nil, err
	}
	return s.UpdateGeometry(id, n.Bounds().Translate(dx, dy))
}

// Resize changes a node's size, clamped to the minimum node size, keeping the
// top-left corner fixed. It returns the size actually applied.
func (s *Store) Resize(id shared.NodeID, width, height float64) (geometry.Size, []*Edge, error) {
	n, err := s.Node(id)
	if err != nil {
		return geometry.Size{}, nil, err
	}
	if math.IsNaN(width) || math.IsNaN(height) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return geometry.Size{}, nil, shared.ErrInvalidGeometry.WithDetails("size %gx%g", width, height)
	}
	size := ClampSize(width, height)
	edges, err := s.UpdateGeometry(id, n.Bounds().Resize(size.Width, size.Height))
	return size, edges, err
}

// ClampSize applies the minimum node size.
func ClampSize(width, height float64) geometry.Size {
	return geometry.Size{
		Width:  math.Max(shared.MinNodeWidth, width),
		Height: math.Max(shared.MinNodeHeight, height),
	}
}

// Reroute recomputes the route of every edge incident to id. Edges whose
// other endpoint no longer exists are stale and are dropped from the store
// instead of raising.
func (s *Store) Reroute(id shared.NodeID) []*Edge {
	incident := s.adjacency[id]
	if len(incident) == 0 {
		return nil
	}

	ids := make([]shared.EdgeID, 0, len(incident))
	for eid := range incident {
		ids = append(ids, eid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rerouted := make([]*Edge, 0, len(ids))
	for _, eid := range ids {
		e, ok := s.edges[eid]
		if !ok {
			delete(incident, eid)
			continue
		}
		from, fromOK := s.nodes[e.from]
		to, toOK := s.nodes[e.to]
		if !fromOK || !toOK {
			s.logger.Warn("Dropping stale edge",
				zap.String("edge_id", eid.String()),
				zap.String("from", e.from.String()),
				zap.String("to", e.to.String()),
			)
			s.detachEdge(e)
			continue
		}
		e.applyRoute(geometry.RouteBetween(from.Bounds(), to.Bounds(), s.standOff))
		rerouted = append(rerouted, e)
	}
	return rerouted
}

// ============================================================================
// CARD AND GROUP ATTRIBUTES
// ============================================================================

// EditCard replaces a card's editable content and returns the previous one.
func (s *Store) EditCard(id shared.NodeID, content Content) (Content, error) {
	c, err := s.Card(id)
	if err != nil {
		return Content{}, err
	}
	old := c.CurrentContent()
	c.applyContent(content)
	return old, nil
}

// SetCollapsed sets a group's collapsed flag and the visibility of its direct
// members. It returns the affected member ids.
func (s *Store) SetCollapsed(id shared.NodeID, collapsed bool) ([]shared.NodeID, error) {
	g, err := s.Group(id)
	if err != nil {
		return nil, err
	}
	g.collapsed = collapsed
	members := g.MemberIDs()
	for _, mid := range members {
		if n, ok := s.nodes[mid]; ok {
			n.setHidden(collapsed)
		}
	}
	return members, nil
}

// ============================================================================
// MEMBERSHIP
// ============================================================================

// ParentOf returns the group that directly contains id.
func (s *Store) ParentOf(id shared.NodeID) (shared.NodeID, bool) {
	p, ok := s.parents[id]
	return p, ok
}

// SetParent makes groupID the only group containing id. A zero groupID
// removes id from every group. The node is hidden exactly when its new
// parent is collapsed. The change is rejected with
// ErrMembershipCycle if groupID is id itself or one of its descendants.
func (s *Store) SetParent(id, groupID shared.NodeID) error {
	if !s.Has(id) {
		return shared.ErrNodeNotFound.WithDetails("node %s", id)
	}
	if groupID.IsZero() {
		s.detachFromParent(id)
		s.nodes[id].setHidden(false)
		return nil
	}
	g, err := s.Group(groupID)
	if err != nil {
		return err
	}
	if groupID == id || s.IsAncestor(id, groupID) {
		return shared.ErrMembershipCycle.WithDetails("%s into %s", id, groupID)
	}
	s.detachFromParent(id)
	g.members[id] = struct{}{}
	s.parents[id] = groupID
	s.nodes[id].setHidden(g.collapsed)
	return nil
}

// IsAncestor reports whether ancestor contains node through the parent chain.
func (s *Store) IsAncestor(ancestor, node shared.NodeID) bool {
	seen := make(map[shared.NodeID]struct{})
	for cur, ok := s.parents[node]; ok; cur, ok = s.parents[cur] {
		if cur == ancestor {
			return true
		}
		if _, loop := seen[cur]; loop {
			return false
		}
		seen[cur] = struct{}{}
	}
	return false
}

// Descendants returns every node reachable through group membership from
// groupID, breadth first. The cost is proportional to the number of members.
func (s *Store) Descendants(groupID shared.NodeID) []shared.NodeID {
	var out []shared.NodeID
	seen := map[shared.NodeID]struct{}{groupID: {}}
	queue := []shared.NodeID{groupID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		g, ok := s.nodes[cur].(*Group)
		if !ok {
			continue
		}
		for _, mid := range g.MemberIDs() {
			if _, dup := seen[mid]; dup {
				continue
			}
			seen[mid] = struct{}{}
			out = append(out, mid)
			queue = append(queue, mid)
		}
	}
	return out
}

func (s *Store) detachFromParent(id shared.NodeID) {
	p, ok := s.parents[id]
	if !ok {
		return
	}
	if g, isGroup := s.nodes[p].(*Group); isGroup {
		delete(g.members, id)
	}
	delete(s.parents, id)
}

// ============================================================================
// EDGES
// ============================================================================

// AddEdge connects two nodes. It fails with ErrSelfLoop when both endpoints
// are the same node and with ErrDuplicateEdge when the unordered pair is
// already connected.
func (s *Store) AddEdge(spec EdgeSpec) (*Edge, error) {
	if spec.From == spec.To {
		return nil, shared.ErrSelfLoop.WithDetails("node %s", spec.From)
	}
	from, err := s.Node(spec.From)
	if err != nil {
		return nil, err
	}
	to, err := s.Node(spec.To)
	if err != nil {
		return nil, err
	}
	key := makePairKey(spec.From, spec.To)
	if existing, dup := s.pairs[key]; dup {
		return nil, shared.ErrDuplicateEdge.WithDetails("edge %s already joins %s and %s", existing, spec.From, spec.To)
	}
	id := spec.ID
	if id.IsZero() {
		id = shared.NewEdgeID()
	}
	if _, dup := s.edges[id]; dup {
		return nil, shared.ErrDuplicateID.WithDetails("edge %s", id)
	}

	e := &Edge{
		id:    id,
		from:  spec.From,
		to:    spec.To,
		label: spec.Label,
		color: spec.Color,
	}
	if spec.FromSide.Valid() && spec.ToSide.Valid() {
		e.applyRoute(geometry.RouteWithSides(from.Bounds(), to.Bounds(), spec.FromSide, spec.ToSide, s.standOff))
	} else {
		e.applyRoute(geometry.RouteBetween(from.Bounds(), to.Bounds(), s.standOff))
	}

	s.edges[id] = e
	s.edgeOrder = append(s.edgeOrder, id)
	s.pairs[key] = id
	s.link(spec.From, id)
	s.link(spec.To, id)
	return e, nil
}

// Edge returns the edge with id.
func (s *Store) Edge(id shared.EdgeID) (*Edge, error) {
	e, ok := s.edges[id]
	if !ok {
		return nil, shared.ErrEdgeNotFound.WithDetails("edge %s", id)
	}
	return e, nil
}

// Edges returns every edge in creation order.
func (s *Store) Edges() []*Edge {
	out := make([]*Edge, 0, len(s.edgeOrder))
	for _, id := range s.edgeOrder {
		out = append(out, s.edges[id])
	}
	return out
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	return len(s.edges)
}

// EdgesOf returns the edges incident to a node, ordered by id.
func (s *Store) EdgesOf(id shared.NodeID) []*Edge {
	incident := s.adjacency[id]
	out := make([]*Edge, 0, len(incident))
	for eid := range incident {
		if e, ok := s.edges[eid]; ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// EdgeBetween returns the edge joining a and b in either direction.
func (s *Store) EdgeBetween(a, b shared.NodeID) (*Edge, bool) {
	id, ok := s.pairs[makePairKey(a, b)]
	if !ok {
		return nil, false
	}
	return s.edges[id], true
}

// SnapshotEdge captures an edge.
func (s *Store) SnapshotEdge(id shared.EdgeID) (EdgeSnapshot, error) {
	e, err := s.Edge(id)
	if err != nil {
		return EdgeSnapshot{}, err
	}
	return e.snapshot(), nil
}

// RemoveEdge deletes one edge and returns its snapshot.
func (s *Store) RemoveEdge(id shared.EdgeID) (EdgeSnapshot, error) {
	e, err := s.Edge(id)
	if err != nil {
		return EdgeSnapshot{}, err
	}
	snap := e.snapshot()
	s.detachEdge(e)
	return snap, nil
}

// RemoveNode deletes a node and cascades to its incident edges. The node and
// edge snapshots are returned so callers can record them before they are
// gone. Members of a removed group become ungrouped.
func (s *Store) RemoveNode(id shared.NodeID) (NodeSnapshot, []EdgeSnapshot, error) {
	snap, err := s.Snapshot(id)
	if err != nil {
		return NodeSnapshot{}, nil, err
	}

	incident := s.EdgesOf(id)
	edges := make([]EdgeSnapshot, 0, len(incident))
	for _, e := range incident {
		edges = append(edges, e.snapshot())
		s.detachEdge(e)
	}

	if g, ok := s.nodes[id].(*Group); ok {
		for mid := range g.members {
			delete(s.parents, mid)
		}
		g.members = make(map[shared.NodeID]struct{})
	}
	s.detachFromParent(id)

	delete(s.nodes, id)
	delete(s.adjacency, id)
	s.order = removeID(s.order, id)
	return snap, edges, nil
}

func (s *Store) link(nodeID shared.NodeID, edgeID shared.EdgeID) {
	set, ok := s.adjacency[nodeID]
	if !ok {
		set = make(map[shared.EdgeID]struct{})
		s.adjacency[nodeID] = set
	}
	set[edgeID] = struct{}{}
}

func (s *Store) detachEdge(e *Edge) {
	delete(s.edges, e.id)
	delete(s.pairs, makePairKey(e.from, e.to))
	if set, ok := s.adjacency[e.from]; ok {
		delete(set, e.id)
	}
	if set, ok := s.adjacency[e.to]; ok {
		delete(set, e.id)
	}
	for i, id := range s.edgeOrder {
		if id == e.id {
			s.edgeOrder = append(s.edgeOrder[:i], s.edgeOrder[i+1:]...)
			break
		}
	}
}

func removeID(ids []shared.NodeID, id shared.NodeID) []shared.NodeID {
	for i, cur := range ids {
		if cur == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
