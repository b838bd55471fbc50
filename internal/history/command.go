// Package history records reversible graph mutations for linear undo/redo.
// Commands are plain value records; Apply replays them against a target in
// either direction.
package history

import (
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
)

// Kind identifies what a command changes.
type Kind string

const (
	KindMove   Kind = "move"
	KindResize Kind = "resize"
	KindEdit   Kind = "edit"
	KindCreate Kind = "create"
	KindDelete Kind = "delete"
)

// Direction selects which side of a command is applied.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Backward {
		return Forward
	}
	return Backward
}

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// PositionChange is one node's top-left before and after a move.
type PositionChange struct {
	ID   shared.NodeID  `json:"id"`
	From geometry.Point `json:"from"`
	To   geometry.Point `json:"to"`
}

// SizeChange is one node's size before and after a resize. The top-left
// corner is unaffected.
type SizeChange struct {
	ID   shared.NodeID `json:"id"`
	From geometry.Size `json:"from"`
	To   geometry.Size `json:"to"`
}

// ContentChange is one card's editable content before and after an edit.
type ContentChange struct {
	ID   shared.NodeID `json:"id"`
	From graph.Content `json:"from"`
	To   graph.Content `json:"to"`
}

// ParentChange is one node's containing group before and after a drop. A
// zero id means no group.
type ParentChange struct {
	ID   shared.NodeID `json:"id"`
	From shared.NodeID `json:"from,omitempty"`
	To   shared.NodeID `json:"to,omitempty"`
}

// Command is an immutable, self-contained record of one user mutation.
type Command struct {
	Kind        Kind             `json:"kind"`
	Description string           `json:"description"`
	Moves       []PositionChange `json:"moves,omitempty"`
	Parents     []ParentChange   `json:"parents,omitempty"`
	Resizes     []SizeChange     `json:"resizes,omitempty"`
	Edits       []ContentChange  `json:"edits,omitempty"`
	Subgraph    graph.Subgraph   `json:"subgraph"`
}

// NewMove records a move of one or more nodes, plus any membership changes
// the drop caused.
func NewMove(description string, moves []PositionChange, parents []ParentChange) Command {
	return Command{
		Kind:        KindMove,
		Description: description,
		Moves:       append([]PositionChange(nil), moves...),
		Parents:     append([]ParentChange(nil), parents...),
	}
}

// NewResize records a resize.
func NewResize(description string, resizes ...SizeChange) Command {
	return Command{
		Kind:        KindResize,
		Description: description,
		Resizes:     append([]SizeChange(nil), resizes...),
	}
}

// NewEdit records a content edit.
func NewEdit(description string, edits ...ContentChange) Command {
	cp := make([]ContentChange, 0, len(edits))
	for _, e := range edits {
		e.From.Tags = append([]string(nil), e.From.Tags...)
		e.To.Tags = append([]string(nil), e.To.Tags...)
		cp = append(cp, e)
	}
	return Command{Kind: KindEdit, Description: description, Edits: cp}
}

// NewCreate records the creation of a subgraph. Undo removes it.
func NewCreate(description string, sub graph.Subgraph) Command {
	return Command{Kind: KindCreate, Description: description, Subgraph: sub.Clone()}
}

// NewDelete records the deletion of a subgraph. Undo restores it.
func NewDelete(description string, sub graph.Subgraph) Command {
	return Command{Kind: KindDelete, Description: description, Subgraph: sub.Clone()}
}

// WithParents attaches membership changes to a move, resize or create.
func (c Command) WithParents(parents []ParentChange) Command {
	c.Parents = append([]ParentChange(nil), parents...)
	return c
}

// IsEmpty reports whether the command changes nothing.
func (c Command) IsEmpty() bool {
	return len(c.Moves) == 0 && len(c.Parents) == 0 && len(c.Resizes) == 0 &&
		len(c.Edits) == 0 && c.Subgraph.IsEmpty()
}

// NodeIDs lists every node the command touches.
func (c Command) NodeIDs() []shared.NodeID {
	var ids []shared.NodeID
	for _, m := range c.Moves {
		ids = append(ids, m.ID)
	}
	for _, r := range c.Resizes {
		ids = append(ids, r.ID)
	}
	for _, e := range c.Edits {
		ids = append(ids, e.ID)
	}
	return append(ids, c.Subgraph.NodeIDs()...)
}
