package orchestrator

import (
	"context"

	"brain2-canvas/internal/application/commands"
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
)

// connectState is a connection being dragged out of an anchor.
type connectState struct {
	from    shared.NodeID
	side    geometry.Side
	pointer geometry.Point
	moved   bool
}

// beginConnect requires the source to be the single selected card, the only
// state in which its anchors are shown.
func (o *Orchestrator) beginConnect(_ context.Context, cmd commands.BeginConnect) error {
	n, err := o.app.Store.Card(cmd.NodeID)
	if err != nil {
		return err
	}
	if target, ok := o.app.Selection.HandleTarget(); !ok || target != cmd.NodeID {
		return shared.ErrNoHandleTarget.WithDetails("node %s", cmd.NodeID)
	}
	if o.drag != nil || o.app.Selection.Boxing() {
		return shared.ErrGestureInProgress.WithDetails("cannot connect while dragging")
	}
	o.connect = &connectState{
		from:    cmd.NodeID,
		side:    cmd.Side,
		pointer: geometry.AnchorPosition(n.Bounds(), cmd.Side),
	}
	return nil
}

func (o *Orchestrator) updateConnect(_ context.Context, cmd commands.UpdateConnect) error {
	if o.connect == nil {
		return nil
	}
	o.connect.pointer = geometry.Pt(cmd.X, cmd.Y)
	o.connect.moved = true
	return nil
}

// endConnect always clears the preview. Releasing over the source or empty
// canvas creates nothing; a duplicate connection is silently ignored.
func (o *Orchestrator) endConnect(ctx context.Context, cmd commands.EndConnect) error {
	c := o.connect
	o.connect = nil
	if c == nil || cmd.TargetID.IsZero() || cmd.TargetID == c.from {
		return nil
	}
	target, err := o.app.Store.Node(cmd.TargetID)
	if err != nil {
		return nil
	}
	return o.addEdge(ctx, graph.EdgeSpec{
		From:     c.from,
		To:       cmd.TargetID,
		FromSide: c.side,
		ToSide:   geometry.ClosestSide(target.Bounds(), geometry.Pt(cmd.X, cmd.Y)),
	}, false)
}

// connectPreview routes from the source anchor to the pointer. The entry
// side is guessed from the drag direction.
func (o *Orchestrator) connectPreview() []geometry.Point {
	c := o.connect
	if c == nil || !c.moved {
		return nil
	}
	n, err := o.app.Store.Node(c.from)
	if err != nil {
		return nil
	}
	start := geometry.AnchorPosition(n.Bounds(), c.side)
	return geometry.ManhattanRoute(start, c.pointer, c.side, geometry.InferEntrySide(start, c.pointer), o.app.Store.StandOff())
}
