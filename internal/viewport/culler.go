package viewport

import (
	"brain2-canvas/internal/domain/geometry"
	canvas "brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
)

// Culler picks the records worth rendering. The test is deliberately coarse:
// a node is visible when its top-left corner lies in the viewport expanded by
// the margin, and an edge is visible when its source node is.
type Culler struct {
	margin float64
}

// NewCuller creates a culler. A non-positive margin uses the default.
func NewCuller(margin float64) *Culler {
	if margin <= 0 {
		margin = shared.CullMargin
	}
	return &Culler{margin: margin}
}

// Margin returns the world-space margin.
func (c *Culler) Margin() float64 { return c.margin }

// Bounds returns the expanded world rectangle used for the test.
func (c *Culler) Bounds(v *Viewport) geometry.Rect {
	return v.WorldRect().Expand(c.margin)
}

// VisibleNodes returns nodes in paint order whose position is inside the
// expanded viewport. Nodes hidden by a collapsed group are skipped.
func (c *Culler) VisibleNodes(v *Viewport, nodes []canvas.Node) []canvas.Node {
	area := c.Bounds(v)
	out := make([]canvas.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Hidden() {
			continue
		}
		if area.ContainsPoint(n.Bounds().Position()) {
			out = append(out, n)
		}
	}
	return out
}

// VisibleEdges returns the edges whose source node is in visible.
func (c *Culler) VisibleEdges(visible []canvas.Node, edges []*canvas.Edge) []*canvas.Edge {
	set := make(map[shared.NodeID]struct{}, len(visible))
	for _, n := range visible {
		set[n.ID()] = struct{}{}
	}
	out := make([]*canvas.Edge, 0, len(edges))
	for _, e := range edges {
		if _, ok := set[e.From()]; ok {
			out = append(out, e)
		}
	}
	return out
}
