package orchestrator

import (
	"context"

	"brain2-canvas/internal/application/commands"
	"brain2-canvas/internal/domain/containment"
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
	"brain2-canvas/internal/history"
)

// dragState remembers where every node carried by a drag started.
type dragState struct {
	id     shared.NodeID
	group  bool
	order  []shared.NodeID
	starts map[shared.NodeID]geometry.Point
}

func (o *Orchestrator) beginDrag(ctx context.Context, cmd commands.BeginDrag) error {
	if o.drag != nil {
		if err := o.finishDrag(ctx); err != nil {
			return err
		}
	}
	return o.startDrag(cmd.NodeID)
}

func (o *Orchestrator) startDrag(id shared.NodeID) error {
	store := o.app.Store
	n, err := store.Node(id)
	if err != nil {
		return err
	}
	d := &dragState{
		id:     id,
		order:  []shared.NodeID{id},
		starts: map[shared.NodeID]geometry.Point{id: n.Bounds().Position()},
	}
	if _, err := store.Group(id); err == nil {
		d.group = true
		for _, mid := range store.Descendants(id) {
			if m, err := store.Node(mid); err == nil {
				d.order = append(d.order, mid)
				d.starts[mid] = m.Bounds().Position()
			}
		}
	}
	if err := store.BringToFront(id); err != nil {
		return err
	}
	o.drag = d
	return nil
}

// dragMove follows the pointer. Routes are recomputed for the incident edges
// only, and group highlights change without touching membership.
func (o *Orchestrator) dragMove(_ context.Context, cmd commands.DragMove) error {
	if o.drag == nil || o.drag.id != cmd.NodeID {
		if err := o.startDrag(cmd.NodeID); err != nil {
			return err
		}
	}
	app := o.app
	n, err := app.Store.Node(cmd.NodeID)
	if err != nil {
		return err
	}
	if o.drag.group {
		cur := n.Bounds().Position()
		if _, err := app.Engine.MoveGroup(cmd.NodeID, cmd.X-cur.X, cmd.Y-cur.Y); err != nil {
			return err
		}
	} else {
		edges, err := app.Store.Move(cmd.NodeID, cmd.X, cmd.Y)
		if err != nil {
			return err
		}
		o.rerouted(len(edges))
	}
	app.Engine.DragHighlight(cmd.NodeID, n.Bounds())
	return nil
}

func (o *Orchestrator) endDrag(ctx context.Context, cmd commands.EndDrag) error {
	if o.drag == nil || o.drag.id != cmd.NodeID {
		o.app.Engine.ClearHighlights()
		return errors.Validation(errors.CodeInvalidInput.String(), "no drag in progress").
			WithDetails(cmd.NodeID.String()).
			Build()
	}
	return o.finishDrag(ctx)
}

// finishDrag drops the dragged node, settles its membership and records one
// move covering everything the drag carried.
func (o *Orchestrator) finishDrag(ctx context.Context) error {
	d := o.drag
	o.drag = nil
	app := o.app

	change, err := app.Engine.OnDrop(d.id)
	if err != nil {
		return err
	}
	var moves []history.PositionChange
	for _, id := range d.order {
		n, err := app.Store.Node(id)
		if err != nil {
			continue
		}
		if to := n.Bounds().Position(); !to.Equals(d.starts[id]) {
			moves = append(moves, history.PositionChange{ID: id, From: d.starts[id], To: to})
		}
	}
	if len(moves) == 0 && !change.Changed() {
		return nil
	}

	description := "Move card"
	if d.group {
		description = "Move group"
	}
	app.History.Push(history.NewMove(description, moves, parentChanges(change)))
	o.emitMoved(ctx, d.id, d.group)
	if change.Changed() {
		app.emitMembership(ctx, change.NodeID, change.To)
	}
	return nil
}

// moveNode places a node in one step, carrying a group's members along.
func (o *Orchestrator) moveNode(ctx context.Context, cmd commands.MoveNode) error {
	app := o.app
	n, err := app.Store.Node(cmd.NodeID)
	if err != nil {
		return err
	}
	from := n.Bounds().Position()
	_, groupErr := app.Store.Group(cmd.NodeID)
	isGroup := groupErr == nil

	var moves []history.PositionChange
	if isGroup {
		moved, err := app.Engine.MoveGroup(cmd.NodeID, cmd.X-from.X, cmd.Y-from.Y)
		if err != nil {
			return err
		}
		for _, m := range moved {
			moves = append(moves, history.PositionChange{ID: m.ID, From: m.From, To: m.To})
		}
	} else {
		edges, err := app.Store.Move(cmd.NodeID, cmd.X, cmd.Y)
		if err != nil {
			return err
		}
		o.rerouted(len(edges))
		moves = append(moves, history.PositionChange{ID: cmd.NodeID, From: from, To: geometry.Pt(cmd.X, cmd.Y)})
	}

	change, err := app.Engine.OnDrop(cmd.NodeID)
	if err != nil {
		return err
	}
	if cmd.Remote || (from.Equals(geometry.Pt(cmd.X, cmd.Y)) && !change.Changed()) {
		return nil
	}

	description := "Move card"
	if isGroup {
		description = "Move group"
	}
	app.History.Push(history.NewMove(description, moves, parentChanges(change)))
	o.emitMoved(ctx, cmd.NodeID, isGroup)
	if change.Changed() {
		app.emitMembership(ctx, change.NodeID, change.To)
	}
	return nil
}

func (o *Orchestrator) emitMoved(ctx context.Context, id shared.NodeID, group bool) {
	n, err := o.app.Store.Node(id)
	if err != nil {
		return
	}
	p := n.Bounds().Position()
	name := shared.EventCardMoved
	if group {
		name = shared.EventGroupMoved
	}
	o.app.emit(ctx, name, shared.CardMoved{ID: id.String(), X: p.X, Y: p.Y})
}

// resizeNode clamps to the minimum size. A resized group can capture or
// release nodes, so membership is reconciled for the whole board; a resized
// card is re-dropped.
func (o *Orchestrator) resizeNode(ctx context.Context, cmd commands.ResizeNode) error {
	app := o.app
	n, err := app.Store.Node(cmd.NodeID)
	if err != nil {
		return err
	}
	before := n.Bounds().Size()
	after, edges, err := app.Store.Resize(cmd.NodeID, cmd.Width, cmd.Height)
	if err != nil {
		return err
	}
	o.rerouted(len(edges))

	var changes []containment.MembershipChange
	if _, err := app.Store.Group(cmd.NodeID); err == nil {
		if changes, err = app.Engine.Reconcile(); err != nil {
			return err
		}
	} else {
		change, err := app.Engine.OnDrop(cmd.NodeID)
		if err != nil {
			return err
		}
		changes = parentSlice(change)
	}

	if cmd.Remote || (before == after && len(changes) == 0) {
		return nil
	}
	var parents []history.ParentChange
	for _, c := range changes {
		parents = append(parents, parentChanges(c)...)
	}
	description := "Resize card"
	if _, err := app.Store.Group(cmd.NodeID); err == nil {
		description = "Resize group"
	}
	app.History.Push(history.NewResize(description, history.SizeChange{ID: cmd.NodeID, From: before, To: after}).WithParents(parents))
	app.emitResized(ctx, cmd.NodeID, after.Width, after.Height)
	for _, c := range changes {
		app.emitMembership(ctx, c.NodeID, c.To)
	}
	return nil
}

func parentChanges(c containment.MembershipChange) []history.ParentChange {
	if !c.Changed() {
		return nil
	}
	return []history.ParentChange{{ID: c.NodeID, From: c.From, To: c.To}}
}

func parentSlice(c containment.MembershipChange) []containment.MembershipChange {
	if !c.Changed() {
		return nil
	}
	return []containment.MembershipChange{c}
}
