package orchestrator

import (
	"context"

	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/history"
	"brain2-canvas/internal/infrastructure/jsoncanvas"
)

// replay is the history ApplyFunc. It applies cmd to the store and then
// tells the backend what changed, since undo and redo happen locally first.
func (a *App) replay(cmd history.Command, dir history.Direction) error {
	if err := history.Apply(a.Store, cmd, dir); err != nil {
		return err
	}

	ctx := context.Background()
	switch cmd.Kind {
	case history.KindMove:
		a.emitMoves(ctx, cmd.Moves, dir)
		a.emitParents(ctx, cmd.Parents, dir)
	case history.KindResize:
		for _, r := range cmd.Resizes {
			size := r.To
			if dir == history.Backward {
				size = r.From
			}
			a.emitResized(ctx, r.ID, size.Width, size.Height)
		}
		a.emitParents(ctx, cmd.Parents, dir)
	case history.KindEdit:
		for _, e := range cmd.Edits {
			content := e.To
			if dir == history.Backward {
				content = e.From
			}
			a.emitContent(ctx, e.ID, content)
		}
	case history.KindCreate, history.KindDelete:
		appeared := (cmd.Kind == history.KindCreate) == (dir == history.Forward)
		if appeared {
			a.emitRestored(ctx, cmd.Subgraph)
		} else {
			a.emitRemoved(ctx, cmd.Subgraph)
		}
		a.emitParents(ctx, cmd.Parents, dir)
	}

	a.pruneSelection()
	return nil
}

// emitMoves reports replayed moves the way the original gesture did: a
// moved group sends group_moved and its members travel with it silently.
func (a *App) emitMoves(ctx context.Context, moves []history.PositionChange, dir history.Direction) {
	var groups []shared.NodeID
	for _, m := range moves {
		if _, err := a.Store.Group(m.ID); err == nil {
			groups = append(groups, m.ID)
		}
	}
	for _, m := range moves {
		if a.carriedBy(groups, m.ID) {
			continue
		}
		p := m.To
		if dir == history.Backward {
			p = m.From
		}
		name := shared.EventCardMoved
		if _, err := a.Store.Group(m.ID); err == nil {
			name = shared.EventGroupMoved
		}
		a.emit(ctx, name, shared.CardMoved{ID: m.ID.String(), X: p.X, Y: p.Y})
	}
}

func (a *App) carriedBy(groups []shared.NodeID, id shared.NodeID) bool {
	for _, g := range groups {
		if g != id && a.Store.IsAncestor(g, id) {
			return true
		}
	}
	return false
}

func (a *App) emitParents(ctx context.Context, parents []history.ParentChange, dir history.Direction) {
	for _, pc := range parents {
		groupID := pc.To
		if dir == history.Backward {
			groupID = pc.From
		}
		a.emitMembership(ctx, pc.ID, groupID)
	}
}

func (a *App) emitMembership(ctx context.Context, id, groupID shared.NodeID) {
	if groupID.IsZero() {
		a.emit(ctx, shared.EventCardUngrouped, shared.CardUngrouped{CardID: id.String()})
		return
	}
	a.emit(ctx, shared.EventCardGrouped, shared.CardGrouped{CardID: id.String(), GroupID: groupID.String()})
}

func (a *App) emitResized(ctx context.Context, id shared.NodeID, width, height float64) {
	name := shared.EventCardResized
	if _, err := a.Store.Group(id); err == nil {
		name = shared.EventGroupResized
	}
	a.emit(ctx, name, shared.CardResized{ID: id.String(), Width: width, Height: height})
}

func (a *App) emitContent(ctx context.Context, id shared.NodeID, content graph.Content) {
	tags := content.Tags
	if tags == nil {
		tags = []string{}
	}
	a.emit(ctx, shared.EventCardContentSaved, shared.CardContentSaved{
		ID:      id.String(),
		Content: content.Text,
		Tags:    tags,
		Color:   content.Color,
	})
}

// emitRestored sends full records so the backend can recreate them with
// their original ids.
func (a *App) emitRestored(ctx context.Context, sub graph.Subgraph) {
	for _, n := range sub.Nodes {
		snap, err := a.Store.Snapshot(n.ID)
		if err != nil {
			snap = n
		}
		a.emit(ctx, shared.EventRestoreNode, shared.RestoreNode{NodeData: jsoncanvas.NodeRecord(snap)})
	}
	for _, e := range sub.Edges {
		a.emit(ctx, shared.EventRestoreEdge, shared.RestoreEdge{EdgeData: jsoncanvas.EdgeRecord(e)})
	}
}

// emitRemoved reports deleted records, cascaded edges included.
func (a *App) emitRemoved(ctx context.Context, sub graph.Subgraph) {
	if len(sub.Nodes) > 0 {
		a.emit(ctx, shared.EventDeleteNodes, shared.DeleteNodes{NodeIDs: shared.NodeIDStrings(sub.NodeIDs())})
	}
	if len(sub.Edges) > 0 {
		a.emit(ctx, shared.EventDeleteEdges, shared.DeleteEdges{EdgeIDs: shared.EdgeIDStrings(sub.EdgeIDs())})
	}
}

// pruneSelection forgets ids that no longer exist.
func (a *App) pruneSelection() {
	for _, id := range a.Selection.NodeIDs() {
		if !a.Store.Has(id) {
			a.Selection.RemoveNode(id)
		}
	}
	for _, id := range a.Selection.EdgeIDs() {
		if _, err := a.Store.Edge(id); err != nil {
			a.Selection.RemoveEdge(id)
		}
	}
}
