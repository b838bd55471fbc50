package orchestrator

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"brain2-canvas/internal/application/commands"
	"brain2-canvas/internal/domain/containment"
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/history"
)

// ============================================================================
// CREATION
// ============================================================================

func (o *Orchestrator) createCard(ctx context.Context, cmd commands.CreateCard) error {
	card, err := graph.NewCard(graph.CardSpec{
		ID:      cmd.ID,
		Bounds:  geometry.R(cmd.X, cmd.Y, cmd.Width, cmd.Height),
		Content: cmd.Content,
		Text:    cmd.Text,
		Tags:    cmd.Tags,
		Color:   cmd.Color,
		FileRef: cmd.FileRef,
		URL:     cmd.URL,
	})
	if err != nil {
		return err
	}
	return o.insertNode(ctx, card, cmd.Remote, "Create card")
}

func (o *Orchestrator) createGroup(ctx context.Context, cmd commands.CreateGroup) error {
	group, err := graph.NewGroup(graph.GroupSpec{
		ID:     cmd.ID,
		Bounds: geometry.R(cmd.X, cmd.Y, cmd.Width, cmd.Height),
		Label:  cmd.Label,
		Color:  cmd.Color,
	})
	if err != nil {
		return err
	}
	return o.insertNode(ctx, group, cmd.Remote, "Create group")
}

// insertNode adds a node, places it in the group it lands in and records
// the creation.
func (o *Orchestrator) insertNode(ctx context.Context, n graph.Node, remote bool, description string) error {
	app := o.app
	if err := app.Store.AddNode(n); err != nil {
		return err
	}
	if _, err := app.Engine.OnDrop(n.ID()); err != nil {
		return err
	}
	if remote {
		return nil
	}

	sub, err := app.Store.CaptureSubgraph([]shared.NodeID{n.ID()}, nil)
	if err != nil {
		return err
	}
	app.History.Push(history.NewCreate(description, sub))
	app.emitRestored(ctx, sub)
	return nil
}

// groupSelection wraps the selected cards in a new group sized around them.
// The new group joins whatever group it lands in; the cards join it.
func (o *Orchestrator) groupSelection(ctx context.Context, cmd commands.GroupSelection) error {
	app := o.app
	ids := app.Selection.CardIDs()
	if len(ids) == 0 {
		app.notify(shared.NoticeInfo, "Select cards to group")
		return nil
	}

	rects := make([]geometry.Rect, 0, len(ids))
	for _, id := range ids {
		n, err := app.Store.Node(id)
		if err != nil {
			return err
		}
		rects = append(rects, n.Bounds())
	}
	group, err := graph.NewGroup(graph.GroupSpec{
		Bounds: containment.GroupBoundsAround(rects...),
		Label:  cmd.Label,
	})
	if err != nil {
		return err
	}
	if err := app.Store.AddNode(group); err != nil {
		return err
	}
	if _, err := app.Engine.OnDrop(group.ID()); err != nil {
		return err
	}
	sub, err := app.Store.CaptureSubgraph([]shared.NodeID{group.ID()}, nil)
	if err != nil {
		return err
	}

	parents := make([]history.ParentChange, 0, len(ids))
	for _, id := range ids {
		from, _ := app.Store.ParentOf(id)
		if err := app.Store.SetParent(id, group.ID()); err != nil {
			return err
		}
		parents = append(parents, history.ParentChange{ID: id, From: from, To: group.ID()})
	}

	app.History.Push(history.NewCreate("Group cards", sub).WithParents(parents))
	app.Selection.SelectGroup(group.ID())

	b := group.Bounds()
	app.emit(ctx, shared.EventCreateGroupWith, shared.CreateGroupWithCards{
		GroupID: group.ID().String(),
		X:       b.X,
		Y:       b.Y,
		Width:   b.Width,
		Height:  b.Height,
		CardIDs: shared.NodeIDStrings(ids),
	})
	return nil
}

func (o *Orchestrator) connectNodes(ctx context.Context, cmd commands.ConnectNodes) error {
	return o.addEdge(ctx, graph.EdgeSpec{
		ID:       cmd.ID,
		From:     cmd.From,
		To:       cmd.To,
		FromSide: cmd.FromSide,
		ToSide:   cmd.ToSide,
		Label:    cmd.Label,
		Color:    cmd.Color,
	}, cmd.Remote)
}

func (o *Orchestrator) addEdge(ctx context.Context, spec graph.EdgeSpec, remote bool) error {
	app := o.app
	e, err := app.Store.AddEdge(spec)
	if err != nil {
		return err
	}
	if remote {
		return nil
	}
	snap, err := app.Store.SnapshotEdge(e.ID())
	if err != nil {
		return err
	}
	app.History.Push(history.NewCreate("Connect cards", graph.Subgraph{Edges: []graph.EdgeSnapshot{snap}}))
	app.emit(ctx, shared.EventEdgeCreate, shared.EdgeCreate{
		ID:       e.ID().String(),
		FromNode: e.From().String(),
		ToNode:   e.To().String(),
		FromSide: string(e.FromSide()),
		ToSide:   string(e.ToSide()),
		Color:    e.Color(),
		Label:    e.Label(),
	})
	return nil
}

// ============================================================================
// CONTENT
// ============================================================================

func (o *Orchestrator) editCard(ctx context.Context, cmd commands.EditCard) error {
	app := o.app
	card, err := app.Store.Card(cmd.NodeID)
	if err != nil {
		return err
	}
	before := card.CurrentContent()
	if _, err := app.Store.EditCard(cmd.NodeID, graph.Content{Text: cmd.Text, Tags: cmd.Tags, Color: cmd.Color}); err != nil {
		return err
	}
	after := card.CurrentContent()
	if cmd.Remote || sameContent(before, after) {
		return nil
	}
	app.History.Push(history.NewEdit("Edit card", history.ContentChange{ID: cmd.NodeID, From: before, To: after}))
	app.emitContent(ctx, cmd.NodeID, after)
	return nil
}

func sameContent(a, b graph.Content) bool {
	return a.Text == b.Text && a.Color == b.Color && slices.Equal(a.Tags, b.Tags)
}

// ============================================================================
// DELETION
// ============================================================================

func (o *Orchestrator) deleteNodes(ctx context.Context, cmd commands.DeleteNodes) error {
	return o.remove(ctx, cmd.NodeIDs, nil, cmd.Remote)
}

func (o *Orchestrator) deleteEdges(ctx context.Context, cmd commands.DeleteEdges) error {
	return o.remove(ctx, nil, cmd.EdgeIDs, cmd.Remote)
}

func (o *Orchestrator) deleteSelection(ctx context.Context, _ commands.DeleteSelection) error {
	nodes := o.app.Selection.NodeIDs()
	edges := o.app.Selection.EdgeIDs()
	if len(nodes) == 0 && len(edges) == 0 {
		return nil
	}
	return o.remove(ctx, nodes, edges, false)
}

// remove deletes nodes, their incident edges and the listed edges as one
// command. Deleting a group takes its members with it, transitively.
func (o *Orchestrator) remove(ctx context.Context, nodeIDs []shared.NodeID, edgeIDs []shared.EdgeID, remote bool) error {
	app := o.app
	ids := o.withDescendants(nodeIDs)
	description := deleteDescription(app.Store, ids, edgeIDs)

	sub, err := app.Store.Remove(ids, edgeIDs)
	if err != nil {
		return err
	}
	app.pruneSelection()
	o.forgetRemoved()

	if remote {
		return nil
	}
	app.History.Push(history.NewDelete(description, sub))
	app.emitRemoved(ctx, sub)
	return nil
}

func (o *Orchestrator) withDescendants(ids []shared.NodeID) []shared.NodeID {
	out := make([]shared.NodeID, 0, len(ids))
	seen := make(map[shared.NodeID]struct{}, len(ids))
	add := func(id shared.NodeID) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range ids {
		add(id)
		for _, d := range o.app.Store.Descendants(id) {
			add(d)
		}
	}
	return out
}

func deleteDescription(store *graph.Store, nodeIDs []shared.NodeID, edgeIDs []shared.EdgeID) string {
	switch {
	case len(nodeIDs) == 1 && len(edgeIDs) == 0:
		if _, err := store.Group(nodeIDs[0]); err == nil {
			return "Delete group"
		}
		return "Delete card"
	case len(nodeIDs) == 0 && len(edgeIDs) == 1:
		return "Delete connection"
	default:
		return fmt.Sprintf("Delete %d items", len(nodeIDs)+len(edgeIDs))
	}
}

// forgetRemoved ends gestures whose subject no longer exists.
func (o *Orchestrator) forgetRemoved() {
	if o.drag != nil && !o.app.Store.Has(o.drag.id) {
		o.drag = nil
	}
	if o.connect != nil && !o.app.Store.Has(o.connect.from) {
		o.connect = nil
	}
	for id := range o.previews {
		if !o.app.Store.Has(id) {
			delete(o.previews, id)
		}
	}
}

// ============================================================================
// STRUCTURE AND COLLABORATOR INPUT
// ============================================================================

func (o *Orchestrator) toggleCollapse(ctx context.Context, cmd commands.ToggleCollapse) error {
	app := o.app
	collapsed, err := app.Engine.ToggleCollapse(cmd.GroupID)
	if err != nil {
		return err
	}
	if collapsed {
		for _, id := range app.Store.Descendants(cmd.GroupID) {
			if n, err := app.Store.Node(id); err == nil && n.Hidden() {
				app.Selection.RemoveNode(id)
			}
		}
	}
	app.emit(ctx, shared.EventToggleGroupCollapse, shared.ToggleGroupCollapse{
		GroupID:   cmd.GroupID.String(),
		Collapsed: collapsed,
	})
	return nil
}

// restoreSnapshot re-inserts records sent by a collaborator. The records
// already exist on the sender's side, so nothing is recorded or echoed.
func (o *Orchestrator) restoreSnapshot(_ context.Context, cmd commands.RestoreSnapshot) error {
	if err := o.app.Store.Restore(cmd.Subgraph); err != nil {
		return err
	}
	o.logger.Debug("Restored snapshot",
		zap.Int("nodes", len(cmd.Subgraph.Nodes)),
		zap.Int("edges", len(cmd.Subgraph.Edges)),
	)
	return nil
}

// fileLoaded records that a file card's preview is ready. The card may have
// been deleted while the resource loaded; such completions are dropped.
func (o *Orchestrator) fileLoaded(_ context.Context, cmd commands.FileLoaded) error {
	if !o.app.Store.Has(cmd.NodeID) {
		o.logger.Info("Ignoring resource for deleted node", zap.String("node_id", cmd.NodeID.String()))
		return nil
	}
	if _, err := o.app.Store.Card(cmd.NodeID); err != nil {
		return err
	}
	o.previews[cmd.NodeID] = geometry.Size{Width: cmd.Width, Height: cmd.Height}
	return nil
}
