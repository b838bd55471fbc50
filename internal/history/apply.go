package history

import (
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
)

// Target is the part of the graph store a command is replayed against.
type Target interface {
	Node(id shared.NodeID) (graph.Node, error)
	Move(id shared.NodeID, x, y float64) ([]*graph.Edge, error)
	UpdateGeometry(id shared.NodeID, bounds geometry.Rect) ([]*graph.Edge, error)
	EditCard(id shared.NodeID, content graph.Content) (graph.Content, error)
	ParentOf(id shared.NodeID) (shared.NodeID, bool)
	SetParent(id, groupID shared.NodeID) error
	Restore(sub graph.Subgraph) error
	Remove(nodeIDs []shared.NodeID, edgeIDs []shared.EdgeID) (graph.Subgraph, error)
}

// Apply replays cmd against target in the given direction. Every node a
// move, resize or edit refers to and every group a membership change points
// at is checked before anything changes, and subgraph restores are validated
// as a batch by the target, so a failing command leaves the target as it
// was.
func Apply(target Target, cmd Command, dir Direction) error {
	if cmd.Kind != KindCreate && cmd.Kind != KindDelete {
		for _, id := range cmd.NodeIDs() {
			if _, err := target.Node(id); err != nil {
				return err
			}
		}
	}
	if err := checkParents(target, cmd, dir); err != nil {
		return err
	}

	switch cmd.Kind {
	case KindMove:
		if err := applyMove(target, cmd, dir); err != nil {
			return err
		}
		if err := applyParents(target, cmd, dir); err != nil {
			_ = applyMove(target, cmd, dir.Opposite())
			return err
		}
		return nil
	case KindResize:
		if err := applyResize(target, cmd, dir); err != nil {
			return err
		}
		if err := applyParents(target, cmd, dir); err != nil {
			_ = applyResize(target, cmd, dir.Opposite())
			return err
		}
		return nil
	case KindEdit:
		return applyEdit(target, cmd, dir)
	case KindCreate:
		if dir == Forward {
			if err := target.Restore(cmd.Subgraph); err != nil {
				return err
			}
			if err := applyParents(target, cmd, dir); err != nil {
				_, _ = target.Remove(cmd.Subgraph.NodeIDs(), cmd.Subgraph.EdgeIDs())
				return err
			}
			return nil
		}
		if err := applyParents(target, cmd, dir); err != nil {
			return err
		}
		_, err := target.Remove(cmd.Subgraph.NodeIDs(), cmd.Subgraph.EdgeIDs())
		return err
	case KindDelete:
		if dir == Forward {
			_, err := target.Remove(cmd.Subgraph.NodeIDs(), cmd.Subgraph.EdgeIDs())
			return err
		}
		return target.Restore(cmd.Subgraph)
	default:
		return errors.Validation(errors.CodeUnknownCommand.String(), "unknown command kind").
			WithDetails(string(cmd.Kind)).
			WithResource("history").
			Build()
	}
}

// checkParents verifies that every node a membership change moves and every
// group it moves it into exists. Records a forward create is about to
// restore count as present.
func checkParents(target Target, cmd Command, dir Direction) error {
	if len(cmd.Parents) == 0 || cmd.Kind == KindDelete {
		return nil
	}
	restoring := make(map[shared.NodeID]struct{})
	if cmd.Kind == KindCreate && dir == Forward {
		for _, id := range cmd.Subgraph.NodeIDs() {
			restoring[id] = struct{}{}
		}
	}
	for _, pc := range cmd.Parents {
		groupID := pc.To
		if dir == Backward {
			groupID = pc.From
		}
		for _, id := range []shared.NodeID{pc.ID, groupID} {
			if id.IsZero() {
				continue
			}
			if _, ok := restoring[id]; ok {
				continue
			}
			n, err := target.Node(id)
			if err != nil {
				return err
			}
			if id == groupID && n.Kind() != graph.KindGroup {
				return shared.ErrNotAGroup.WithDetails("node %s", id)
			}
		}
	}
	return nil
}

func applyMove(target Target, cmd Command, dir Direction) error {
	for _, m := range cmd.Moves {
		p := m.To
		if dir == Backward {
			p = m.From
		}
		if _, err := target.Move(m.ID, p.X, p.Y); err != nil {
			return err
		}
	}
	return nil
}

// applyParents replays membership changes. Backward runs them in reverse so
// nested moves unwind in the right order. If one change is rejected, the
// ones already made are put back.
func applyParents(target Target, cmd Command, dir Direction) error {
	parents := cmd.Parents
	if dir == Backward {
		parents = reversed(parents)
	}
	applied := make([]ParentChange, 0, len(parents))
	for _, pc := range parents {
		groupID := pc.To
		if dir == Backward {
			groupID = pc.From
		}
		previous, _ := target.ParentOf(pc.ID)
		if err := target.SetParent(pc.ID, groupID); err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				_ = target.SetParent(applied[i].ID, applied[i].From)
			}
			return err
		}
		applied = append(applied, ParentChange{ID: pc.ID, From: previous, To: groupID})
	}
	return nil
}

func applyResize(target Target, cmd Command, dir Direction) error {
	for _, r := range cmd.Resizes {
		size := r.To
		if dir == Backward {
			size = r.From
		}
		n, err := target.Node(r.ID)
		if err != nil {
			return err
		}
		if _, err := target.UpdateGeometry(r.ID, n.Bounds().Resize(size.Width, size.Height)); err != nil {
			return err
		}
	}
	return nil
}

func applyEdit(target Target, cmd Command, dir Direction) error {
	for _, e := range cmd.Edits {
		content := e.To
		if dir == Backward {
			content = e.From
		}
		if _, err := target.EditCard(e.ID, content); err != nil {
			return err
		}
	}
	return nil
}

func reversed(in []ParentChange) []ParentChange {
	out := make([]ParentChange, len(in))
	for i, pc := range in {
		out[len(in)-1-i] = pc
	}
	return out
}
