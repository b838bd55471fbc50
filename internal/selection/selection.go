// Package selection tracks the ephemeral selection: three disjoint id sets
// for cards, groups and edges, plus an optional rubber-band box.
package selection

import (
	"sort"

	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/shared"
)

// Mode is the derived selection state.
type Mode string

const (
	ModeIdle   Mode = "idle"
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

// Candidate is a card considered by box selection.
type Candidate struct {
	ID     shared.NodeID
	Bounds geometry.Rect
}

// State holds the current selection. It stores ids only.
type State struct {
	cards  map[shared.NodeID]struct{}
	groups map[shared.NodeID]struct{}
	edges  map[shared.EdgeID]struct{}

	boxing   bool
	boxStart geometry.Point
	boxEnd   geometry.Point
}

// New returns an empty selection.
func New() *State {
	s := &State{}
	s.reset()
	return s
}

func (s *State) reset() {
	s.cards = make(map[shared.NodeID]struct{})
	s.groups = make(map[shared.NodeID]struct{})
	s.edges = make(map[shared.EdgeID]struct{})
}

// SelectCard selects a card. Without additive the previous selection is
// cleared first; with additive the card joins the card set and nothing
// else changes.
func (s *State) SelectCard(id shared.NodeID, additive bool) {
	if !additive {
		s.reset()
	}
	s.cards[id] = struct{}{}
}

// SelectGroup clears the selection and selects one group.
func (s *State) SelectGroup(id shared.NodeID) {
	s.reset()
	s.groups[id] = struct{}{}
}

// SelectEdge clears the selection and selects one edge.
func (s *State) SelectEdge(id shared.EdgeID) {
	s.reset()
	s.edges[id] = struct{}{}
}

// DeselectAll clears every set.
func (s *State) DeselectAll() {
	s.reset()
}

// RemoveNode drops a node id from the selection, e.g. after deletion.
func (s *State) RemoveNode(id shared.NodeID) {
	delete(s.cards, id)
	delete(s.groups, id)
}

// RemoveEdge drops an edge id from the selection.
func (s *State) RemoveEdge(id shared.EdgeID) {
	delete(s.edges, id)
}

// Mode derives the state from the set sizes.
func (s *State) Mode() Mode {
	switch s.Len() {
	case 0:
		return ModeIdle
	case 1:
		return ModeSingle
	default:
		return ModeMulti
	}
}

// Len is the total number of selected records.
func (s *State) Len() int {
	return len(s.cards) + len(s.groups) + len(s.edges)
}

// IsEmpty reports whether nothing is selected.
func (s *State) IsEmpty() bool {
	return s.Len() == 0
}

// CardIDs returns the selected cards in id order.
func (s *State) CardIDs() []shared.NodeID {
	return sortedNodes(s.cards)
}

// GroupIDs returns the selected groups in id order.
func (s *State) GroupIDs() []shared.NodeID {
	return sortedNodes(s.groups)
}

// NodeIDs returns selected cards followed by selected groups.
func (s *State) NodeIDs() []shared.NodeID {
	return append(s.CardIDs(), s.GroupIDs()...)
}

// EdgeIDs returns the selected edges in id order.
func (s *State) EdgeIDs() []shared.EdgeID {
	ids := make([]shared.EdgeID, 0, len(s.edges))
	for id := range s.edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HasNode reports whether a card or group is selected.
func (s *State) HasNode(id shared.NodeID) bool {
	_, card := s.cards[id]
	_, group := s.groups[id]
	return card || group
}

// HasEdge reports whether an edge is selected.
func (s *State) HasEdge(id shared.EdgeID) bool {
	_, ok := s.edges[id]
	return ok
}

// HandleTarget returns the card that shows resize handles and connection
// anchors. Only a single selected card qualifies.
func (s *State) HandleTarget() (shared.NodeID, bool) {
	if len(s.cards) != 1 || len(s.groups) != 0 || len(s.edges) != 0 {
		return "", false
	}
	for id := range s.cards {
		return id, true
	}
	return "", false
}

// ============================================================================
// BOX SELECTION
// ============================================================================

// BeginBox starts a rubber-band selection at a world point. A box may only
// start from Idle; ErrSelectionNotIdle is returned otherwise.
func (s *State) BeginBox(at geometry.Point) error {
	if s.boxing {
		return shared.ErrGestureInProgress.WithDetails("box selection already started")
	}
	if !s.IsEmpty() {
		return shared.ErrSelectionNotIdle.WithDetails("%d selected", s.Len())
	}
	s.boxing = true
	s.boxStart = at
	s.boxEnd = at
	return nil
}

// UpdateBox moves the free corner of the box.
func (s *State) UpdateBox(at geometry.Point) {
	if s.boxing {
		s.boxEnd = at
	}
}

// Boxing reports whether a box selection is in progress.
func (s *State) Boxing() bool {
	return s.boxing
}

// Box returns the current box in world space.
func (s *State) Box() (geometry.Rect, bool) {
	if !s.boxing {
		return geometry.Rect{}, false
	}
	return geometry.RectFromPoints(s.boxStart, s.boxEnd), true
}

// CancelBox abandons the box without changing the selection.
func (s *State) CancelBox() {
	s.boxing = false
}

// FinishBox ends the box and selects every candidate card whose bounds
// intersect it. A box smaller than minScreen on either axis, measured in
// screen units at the given scale, is a click and selects nothing. It
// returns the ids that were selected and whether the box counted.
func (s *State) FinishBox(candidates []Candidate, scale, minScreen float64) ([]shared.NodeID, bool) {
	box, ok := s.Box()
	s.boxing = false
	if !ok {
		return nil, false
	}
	if box.Width*scale < minScreen || box.Height*scale < minScreen {
		return nil, false
	}
	s.reset()
	var hit []shared.NodeID
	for _, c := range candidates {
		if box.Intersects(c.Bounds) {
			s.cards[c.ID] = struct{}{}
			hit = append(hit, c.ID)
		}
	}
	return hit, true
}

func sortedNodes(set map[shared.NodeID]struct{}) []shared.NodeID {
	ids := make([]shared.NodeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
