package orchestrator

import (
	"context"
	"fmt"

	"brain2-canvas/internal/application/commands"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/history"
	"brain2-canvas/internal/infrastructure/jsoncanvas"
)

// copy puts the selected cards on the clipboard together with the edges
// whose both ends were selected. Copies are detached from their groups.
func (o *Orchestrator) copy(_ context.Context, _ commands.Copy) error {
	app := o.app
	ids := app.Selection.CardIDs()
	if len(ids) == 0 {
		app.notify(shared.NoticeInfo, "Select cards to copy")
		return nil
	}

	selected := make(map[shared.NodeID]struct{}, len(ids))
	var sub graph.Subgraph
	for _, id := range ids {
		snap, err := app.Store.Snapshot(id)
		if err != nil {
			return err
		}
		snap.ParentID = ""
		snap.Hidden = false
		sub.Nodes = append(sub.Nodes, snap)
		selected[id] = struct{}{}
	}
	seen := make(map[shared.EdgeID]struct{})
	for _, id := range ids {
		for _, e := range app.Store.EdgesOf(id) {
			if _, dup := seen[e.ID()]; dup {
				continue
			}
			_, fromSel := selected[e.From()]
			_, toSel := selected[e.To()]
			if !fromSel || !toSel {
				continue
			}
			seen[e.ID()] = struct{}{}
			snap, err := app.Store.SnapshotEdge(e.ID())
			if err != nil {
				return err
			}
			sub.Edges = append(sub.Edges, snap)
		}
	}

	if err := app.Clipboard.Write(sub); err != nil {
		return err
	}
	app.notify(shared.NoticeSuccess, fmt.Sprintf("Copied %d cards", len(sub.Nodes)))
	return nil
}

// paste inserts the clipboard contents offset from the originals. Every
// record gets a fresh id and the pasted cards become the selection.
func (o *Orchestrator) paste(ctx context.Context, _ commands.Paste) error {
	app := o.app
	copied, ok, err := app.Clipboard.Read()
	if err != nil {
		return err
	}
	if !ok || len(copied.Nodes) == 0 {
		app.notify(shared.NoticeInfo, "Nothing to paste")
		return nil
	}

	sub := rekey(copied, app.settings.PasteOffset)
	if err := app.Store.Restore(sub); err != nil {
		return err
	}
	var parents []history.ParentChange
	for _, n := range sub.Nodes {
		change, err := app.Engine.OnDrop(n.ID)
		if err != nil {
			return err
		}
		parents = append(parents, parentChanges(change)...)
	}

	description := fmt.Sprintf("Paste %d items", len(sub.Nodes)+len(sub.Edges))
	app.History.Push(history.NewCreate(description, sub).WithParents(parents))

	app.Selection.DeselectAll()
	payload := shared.PasteNodes{
		Nodes: make([]interface{}, 0, len(sub.Nodes)),
		Edges: make([]interface{}, 0, len(sub.Edges)),
	}
	for _, n := range sub.Nodes {
		app.Selection.SelectCard(n.ID, true)
		snap, err := app.Store.Snapshot(n.ID)
		if err != nil {
			snap = n
		}
		payload.Nodes = append(payload.Nodes, jsoncanvas.NodeRecord(snap))
	}
	for _, e := range sub.Edges {
		payload.Edges = append(payload.Edges, jsoncanvas.EdgeRecord(e))
	}
	app.emit(ctx, shared.EventPasteNodes, payload)
	return nil
}

// rekey gives every record a new id and shifts nodes by offset on both
// axes. Edges whose endpoints were not copied are dropped.
func rekey(sub graph.Subgraph, offset float64) graph.Subgraph {
	out := graph.Subgraph{
		Nodes: make([]graph.NodeSnapshot, 0, len(sub.Nodes)),
		Edges: make([]graph.EdgeSnapshot, 0, len(sub.Edges)),
	}
	ids := make(map[shared.NodeID]shared.NodeID, len(sub.Nodes))
	for _, n := range sub.Nodes {
		ids[n.ID] = shared.NewNodeID()
	}
	for _, n := range sub.Nodes {
		n = n.Clone()
		n.ID = ids[n.ID]
		n.Bounds = n.Bounds.Translate(offset, offset)
		n.ParentID = ""
		n.Hidden = false
		n.MemberIDs = nil
		out.Nodes = append(out.Nodes, n)
	}
	for _, e := range sub.Edges {
		from, okFrom := ids[e.From]
		to, okTo := ids[e.To]
		if !okFrom || !okTo {
			continue
		}
		e.ID = shared.NewEdgeID()
		e.From = from
		e.To = to
		out.Edges = append(out.Edges, e)
	}
	return out
}
