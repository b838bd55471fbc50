package orchestrator

import (
	"brain2-canvas/internal/domain/containment"
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/viewport"
)

// FrameNode is one node as the renderer draws it.
type FrameNode struct {
	ID          string         `json:"id"`
	Kind        graph.Kind     `json:"kind"`
	Bounds      geometry.Rect  `json:"bounds"`
	Color       string         `json:"color,omitempty"`
	Title       string         `json:"title"`
	Selected    bool           `json:"selected,omitempty"`
	Highlighted bool           `json:"highlighted,omitempty"`
	Dimmed      bool           `json:"dimmed,omitempty"`
	Collapsed   bool           `json:"collapsed,omitempty"`
	Preview     *geometry.Size `json:"preview,omitempty"`
}

// FrameEdge is one routed edge.
type FrameEdge struct {
	ID       string           `json:"id"`
	Points   []geometry.Point `json:"points"`
	Label    string           `json:"label,omitempty"`
	LabelAt  geometry.Point   `json:"labelAt"`
	Color    string           `json:"color"`
	Selected bool             `json:"selected,omitempty"`
}

// Handles are the resize handle and connection anchors of the single
// selected card.
type Handles struct {
	NodeID  string                           `json:"nodeId"`
	Resize  geometry.Point                   `json:"resize"`
	Anchors map[geometry.Side]geometry.Point `json:"anchors"`
}

// Frame is everything needed to paint the board once. Only nodes inside the
// culled viewport are included. Groups come first so cards paint over them.
type Frame struct {
	Viewport   viewport.State   `json:"viewport"`
	Nodes      []FrameNode      `json:"nodes"`
	Edges      []FrameEdge      `json:"edges"`
	Handles    *Handles         `json:"handles,omitempty"`
	Box        *geometry.Rect   `json:"box,omitempty"`
	Connection []geometry.Point `json:"connection,omitempty"`
	Filtered   bool             `json:"filtered,omitempty"`
}

// Frame builds the render frame for the current state.
func (o *Orchestrator) Frame() Frame {
	o.mu.Lock()
	defer o.mu.Unlock()

	app := o.app
	visible := app.Culler.VisibleNodes(app.Viewport, app.Store.Nodes())
	frame := Frame{
		Viewport:   app.Viewport.State(),
		Nodes:      make([]FrameNode, 0, len(visible)),
		Connection: o.connectPreview(),
		Filtered:   o.filter.Active(),
	}

	for _, n := range paintOrder(visible) {
		fn := FrameNode{
			ID:       n.ID().String(),
			Kind:     n.Kind(),
			Bounds:   containment.DisplayBounds(n),
			Color:    n.Color(),
			Title:    n.Title(),
			Selected: app.Selection.HasNode(n.ID()),
		}
		switch v := n.(type) {
		case *graph.Group:
			fn.Highlighted = app.Engine.Highlighted(v.ID())
			fn.Collapsed = v.Collapsed()
		case *graph.Card:
			fn.Dimmed = frame.Filtered && !o.filter.Matches(v)
			if p, ok := o.previews[v.ID()]; ok {
				fn.Preview = &p
			}
		}
		frame.Nodes = append(frame.Nodes, fn)
	}

	edges := app.Culler.VisibleEdges(visible, app.Store.Edges())
	frame.Edges = make([]FrameEdge, 0, len(edges))
	for _, e := range edges {
		frame.Edges = append(frame.Edges, FrameEdge{
			ID:       e.ID().String(),
			Points:   e.Points(),
			Label:    e.Label(),
			LabelAt:  e.LabelAt(),
			Color:    e.Color(),
			Selected: app.Selection.HasEdge(e.ID()),
		})
	}

	if id, ok := app.Selection.HandleTarget(); ok {
		if n, err := app.Store.Node(id); err == nil {
			b := n.Bounds()
			h := &Handles{
				NodeID:  id.String(),
				Resize:  geometry.Pt(b.Right(), b.Bottom()),
				Anchors: make(map[geometry.Side]geometry.Point, len(geometry.Sides)),
			}
			for _, side := range geometry.Sides {
				h.Anchors[side] = geometry.AnchorPosition(b, side)
			}
			frame.Handles = h
		}
	}
	if box, ok := app.Selection.Box(); ok {
		frame.Box = &box
	}

	app.Metrics.ObserveFrame(len(frame.Nodes), frame.Viewport.Scale)
	return frame
}

// paintOrder moves groups ahead of cards, keeping store order within each.
func paintOrder(nodes []graph.Node) []graph.Node {
	out := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind() == graph.KindGroup {
			out = append(out, n)
		}
	}
	for _, n := range nodes {
		if n.Kind() != graph.KindGroup {
			out = append(out, n)
		}
	}
	return out
}
