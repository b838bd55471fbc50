// Package containment derives group membership from node geometry. Membership
// is cached on each group and only recomputed when a drag ends or a group is
// resized; live drag feedback never touches it.
package containment

import (
	"go.uber.org/zap"

	"brain2-canvas/internal/domain/geometry"
	canvas "brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
)

// MembershipChange describes the effect of a drop on one node.
type MembershipChange struct {
	NodeID shared.NodeID
	From   shared.NodeID
	To     shared.NodeID
}

// Changed reports whether the node switched groups.
func (c MembershipChange) Changed() bool {
	return c.From != c.To
}

// Grouped reports whether the node ended up inside a group.
func (c MembershipChange) Grouped() bool {
	return !c.To.IsZero()
}

// HighlightToggle is a change in a group's drag-over highlight.
type HighlightToggle struct {
	GroupID     shared.NodeID
	Highlighted bool
}

// Moved records one node translated by a group drag.
type Moved struct {
	ID   shared.NodeID
	From geometry.Point
	To   geometry.Point
}

// Engine decides which group contains a node and keeps membership current.
type Engine struct {
	store       *canvas.Store
	highlighted map[shared.NodeID]bool
	logger      *zap.Logger
}

// NewEngine creates an engine over store.
func NewEngine(store *canvas.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:       store,
		highlighted: make(map[shared.NodeID]bool),
		logger:      logger,
	}
}

// FindContainer returns the group that would contain a node with the given
// bounds. Among several containing groups the one with the smallest area
// wins; equal areas keep the group painted first. The node itself and, for
// a group, its own descendants are never candidates.
func (e *Engine) FindContainer(id shared.NodeID, bounds geometry.Rect) (shared.NodeID, bool) {
	var (
		best     shared.NodeID
		bestArea float64
		found    bool
		members  *MembershipGraph
	)
	isGroup := e.isGroup(id)
	for _, g := range e.store.Groups() {
		if g.ID() == id || !g.Bounds().Contains(bounds) {
			continue
		}
		if isGroup {
			if members == nil {
				members = BuildMembershipGraph(e.store)
			}
			if members.Reaches(id, g.ID()) {
				continue
			}
		}
		area := g.Bounds().Area()
		if !found || area < bestArea {
			best, bestArea, found = g.ID(), area, true
		}
	}
	return best, found
}

func (e *Engine) isGroup(id shared.NodeID) bool {
	_, err := e.store.Group(id)
	return err == nil
}

// OnDrop recomputes the membership of a node after a drag ends. The node is
// moved into its smallest containing group, or out of every group if none
// contains it. Highlights are cleared.
func (e *Engine) OnDrop(id shared.NodeID) (MembershipChange, error) {
	e.ClearHighlights()

	n, err := e.store.Node(id)
	if err != nil {
		return MembershipChange{}, err
	}
	change := MembershipChange{NodeID: id}
	change.From, _ = e.store.ParentOf(id)
	change.To, _ = e.FindContainer(id, n.Bounds())
	if !change.Changed() {
		return change, nil
	}
	if err := e.store.SetParent(id, change.To); err != nil {
		return MembershipChange{}, err
	}
	e.logger.Debug("Membership changed",
		zap.String("node_id", id.String()),
		zap.String("from", change.From.String()),
		zap.String("to", change.To.String()),
	)
	return change, nil
}

// DragHighlight computes which groups a node being dragged with the given
// bounds is over and returns only the highlights that changed since the last
// call. Membership is not touched.
func (e *Engine) DragHighlight(id shared.NodeID, bounds geometry.Rect) []HighlightToggle {
	var toggles []HighlightToggle
	var members *MembershipGraph
	isGroup := e.isGroup(id)
	for _, g := range e.store.Groups() {
		inside := g.ID() != id && g.Bounds().Contains(bounds)
		if inside && isGroup {
			if members == nil {
				members = BuildMembershipGraph(e.store)
			}
			inside = !members.Reaches(id, g.ID())
		}
		if e.highlighted[g.ID()] == inside {
			continue
		}
		if inside {
			e.highlighted[g.ID()] = true
		} else {
			delete(e.highlighted, g.ID())
		}
		toggles = append(toggles, HighlightToggle{GroupID: g.ID(), Highlighted: inside})
	}
	return toggles
}

// Highlighted reports whether a group is currently highlighted.
func (e *Engine) Highlighted(groupID shared.NodeID) bool {
	return e.highlighted[groupID]
}

// ClearHighlights drops every highlight and returns the toggles.
func (e *Engine) ClearHighlights() []HighlightToggle {
	toggles := make([]HighlightToggle, 0, len(e.highlighted))
	for id := range e.highlighted {
		toggles = append(toggles, HighlightToggle{GroupID: id})
	}
	e.highlighted = make(map[shared.NodeID]bool)
	return toggles
}

// MoveGroup translates a group and, transitively, every member by the same
// delta. Only the group's descendants are visited.
func (e *Engine) MoveGroup(groupID shared.NodeID, dx, dy float64) ([]Moved, error) {
	if _, err := e.store.Group(groupID); err != nil {
		return nil, err
	}
	ids := append([]shared.NodeID{groupID}, e.store.Descendants(groupID)...)
	moved := make([]Moved, 0, len(ids))
	for _, id := range ids {
		n, err := e.store.Node(id)
		if err != nil {
			continue
		}
		from := n.Bounds().Position()
		if _, err := e.store.Translate(id, dx, dy); err != nil {
			return moved, err
		}
		moved = append(moved, Moved{ID: id, From: from, To: from.Translate(dx, dy)})
	}
	return moved, nil
}

// ToggleCollapse flips a group's collapsed flag. Direct members become
// hidden while the group is collapsed.
func (e *Engine) ToggleCollapse(groupID shared.NodeID) (bool, error) {
	g, err := e.store.Group(groupID)
	if err != nil {
		return false, err
	}
	collapsed := !g.Collapsed()
	if _, err := e.store.SetCollapsed(groupID, collapsed); err != nil {
		return false, err
	}
	return collapsed, nil
}

// Reconcile recomputes membership for every node, outer groups first. It is
// run after a group is resized, since that can capture or release nodes.
func (e *Engine) Reconcile() ([]MembershipChange, error) {
	order, err := BuildMembershipGraph(e.store).OuterFirst()
	if err != nil {
		return nil, err
	}
	var changes []MembershipChange
	for _, id := range order {
		change, err := e.OnDrop(id)
		if err != nil {
			e.logger.Warn("Skipping membership reconcile", zap.String("node_id", id.String()), zap.Error(err))
			continue
		}
		if change.Changed() {
			changes = append(changes, change)
		}
	}
	return changes, nil
}

// GroupBoundsAround returns the bounds of a new group wrapping rects with
// the standard padding and room for the header band.
func GroupBoundsAround(rects ...geometry.Rect) geometry.Rect {
	u := geometry.Union(rects...).Expand(shared.GroupPadding)
	u.Height += shared.GroupHeaderHeight
	return u
}

// DisplayBounds is what a renderer draws for a node: collapsed groups shrink
// to their header band.
func DisplayBounds(n canvas.Node) geometry.Rect {
	if g, ok := n.(*canvas.Group); ok && g.Collapsed() {
		b := g.Bounds()
		b.Height = shared.GroupHeaderHeight
		return b
	}
	return n.Bounds()
}
