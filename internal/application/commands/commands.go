// Package commands defines one struct per user or collaborator intent. Every
// input the orchestrator accepts is one of these, dispatched through the bus.
package commands

import (
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
)

// Command is an intent accepted by the dispatcher.
type Command interface {
	CommandName() string
}

// ============================================================================
// CREATION
// ============================================================================

// CreateCard places a new card. A blank ID is minted.
type CreateCard struct {
	ID      shared.NodeID     `json:"id" validate:"nodeid"`
	X       float64           `json:"x" validate:"finite"`
	Y       float64           `json:"y" validate:"finite"`
	Width   float64           `json:"width" validate:"finite,gt=0"`
	Height  float64           `json:"height" validate:"finite,gt=0"`
	Content graph.ContentKind `json:"contentKind" validate:"omitempty,oneof=text file link"`
	Text    string            `json:"text"`
	Tags    []string          `json:"tags" validate:"dive,required"`
	Color   string            `json:"color" validate:"hexcolor_or_empty"`
	FileRef string            `json:"file"`
	URL     string            `json:"url"`
	Remote  bool              `json:"remote"`
}

func (CreateCard) CommandName() string { return "CreateCard" }

// CreateGroup places a new empty group.
type CreateGroup struct {
	ID     shared.NodeID `json:"id" validate:"nodeid"`
	X      float64       `json:"x" validate:"finite"`
	Y      float64       `json:"y" validate:"finite"`
	Width  float64       `json:"width" validate:"finite,gt=0"`
	Height float64       `json:"height" validate:"finite,gt=0"`
	Label  string        `json:"label"`
	Color  string        `json:"color" validate:"hexcolor_or_empty"`
	Remote bool          `json:"remote"`
}

func (CreateGroup) CommandName() string { return "CreateGroup" }

// GroupSelection wraps the selected cards in a new group.
type GroupSelection struct {
	Label string `json:"label"`
}

func (GroupSelection) CommandName() string { return "GroupSelection" }

// ConnectNodes creates an edge. Blank sides are chosen by proximity.
type ConnectNodes struct {
	ID       shared.EdgeID `json:"id"`
	From     shared.NodeID `json:"fromNode" validate:"required,nodeid"`
	To       shared.NodeID `json:"toNode" validate:"required,nodeid"`
	FromSide geometry.Side `json:"fromSide" validate:"side"`
	ToSide   geometry.Side `json:"toSide" validate:"side"`
	Label    string        `json:"label"`
	Color    string        `json:"color" validate:"hexcolor_or_empty"`
	Remote   bool          `json:"remote"`
}

func (ConnectNodes) CommandName() string { return "ConnectNodes" }

// Validate requires both sides or neither.
func (c ConnectNodes) Validate() error {
	if (c.FromSide == "") != (c.ToSide == "") {
		return errors.Validation(errors.CodeInvalidInput.String(), "fromSide and toSide must be given together").
			WithResource("edge").
			Build()
	}
	return nil
}

// ============================================================================
// GEOMETRY
// ============================================================================

// BeginDrag starts dragging a card or group.
type BeginDrag struct {
	NodeID shared.NodeID `json:"nodeId" validate:"required"`
}

func (BeginDrag) CommandName() string { return "BeginDrag" }

// DragMove reports the dragged node's new top-left in world space.
type DragMove struct {
	NodeID shared.NodeID `json:"nodeId" validate:"required"`
	X      float64       `json:"x" validate:"finite"`
	Y      float64       `json:"y" validate:"finite"`
}

func (DragMove) CommandName() string { return "DragMove" }

// EndDrag drops the dragged node.
type EndDrag struct {
	NodeID shared.NodeID `json:"nodeId" validate:"required"`
}

func (EndDrag) CommandName() string { return "EndDrag" }

// MoveNode places a node's top-left in one step. Remote moves come from the
// backend and are neither recorded nor echoed.
type MoveNode struct {
	NodeID shared.NodeID `json:"nodeId" validate:"required"`
	X      float64       `json:"x" validate:"finite"`
	Y      float64       `json:"y" validate:"finite"`
	Remote bool          `json:"remote"`
}

func (MoveNode) CommandName() string { return "MoveNode" }

// ResizeNode changes a node's size. The result is clamped to the minimum.
type ResizeNode struct {
	NodeID shared.NodeID `json:"nodeId" validate:"required"`
	Width  float64       `json:"width" validate:"finite,gt=0"`
	Height float64       `json:"height" validate:"finite,gt=0"`
	Remote bool          `json:"remote"`
}

func (ResizeNode) CommandName() string { return "ResizeNode" }

// ============================================================================
// CONTENT AND STRUCTURE
// ============================================================================

// EditCard saves new card content.
type EditCard struct {
	NodeID shared.NodeID `json:"nodeId" validate:"required"`
	Text   string        `json:"text"`
	Tags   []string      `json:"tags"`
	Color  string        `json:"color" validate:"hexcolor_or_empty"`
	Remote bool          `json:"remote"`
}

func (EditCard) CommandName() string { return "EditCard" }

// DeleteNodes deletes nodes, their edges and, for groups, their members.
type DeleteNodes struct {
	NodeIDs []shared.NodeID `json:"nodeIds" validate:"min=1,dive,required"`
	Remote  bool            `json:"remote"`
}

func (DeleteNodes) CommandName() string { return "DeleteNodes" }

// DeleteEdges deletes edges.
type DeleteEdges struct {
	EdgeIDs []shared.EdgeID `json:"edgeIds" validate:"min=1,dive,required"`
	Remote  bool            `json:"remote"`
}

func (DeleteEdges) CommandName() string { return "DeleteEdges" }

// DeleteSelection deletes whatever is selected.
type DeleteSelection struct{}

func (DeleteSelection) CommandName() string { return "DeleteSelection" }

// ToggleCollapse flips a group between collapsed and expanded.
type ToggleCollapse struct {
	GroupID shared.NodeID `json:"groupId" validate:"required"`
}

func (ToggleCollapse) CommandName() string { return "ToggleCollapse" }

// RestoreSnapshot re-inserts records, e.g. after the backend replays an
// undo on its side.
type RestoreSnapshot struct {
	Subgraph graph.Subgraph `json:"subgraph"`
}

func (RestoreSnapshot) CommandName() string { return "RestoreSnapshot" }

// FileLoaded reports that an external resource for a card finished loading.
type FileLoaded struct {
	NodeID shared.NodeID `json:"nodeId" validate:"required"`
	Width  float64       `json:"width" validate:"finite,gte=0"`
	Height float64       `json:"height" validate:"finite,gte=0"`
}

func (FileLoaded) CommandName() string { return "FileLoaded" }

// ============================================================================
// SELECTION
// ============================================================================

// SelectNode selects a card or group. Additive applies to cards only.
type SelectNode struct {
	NodeID   shared.NodeID `json:"nodeId" validate:"required"`
	Additive bool          `json:"additive"`
}

func (SelectNode) CommandName() string { return "SelectNode" }

// SelectEdge selects one edge.
type SelectEdge struct {
	EdgeID shared.EdgeID `json:"edgeId" validate:"required"`
}

func (SelectEdge) CommandName() string { return "SelectEdge" }

// ClearSelection deselects everything.
type ClearSelection struct{}

func (ClearSelection) CommandName() string { return "ClearSelection" }

// BeginBoxSelect starts a rubber band at a screen point over empty canvas.
// It is rejected unless the selection is empty and no other gesture is
// running.
type BeginBoxSelect struct {
	ScreenX float64 `json:"screenX" validate:"finite"`
	ScreenY float64 `json:"screenY" validate:"finite"`
}

func (BeginBoxSelect) CommandName() string { return "BeginBoxSelect" }

// UpdateBoxSelect moves the rubber band's free corner.
type UpdateBoxSelect struct {
	ScreenX float64 `json:"screenX" validate:"finite"`
	ScreenY float64 `json:"screenY" validate:"finite"`
}

func (UpdateBoxSelect) CommandName() string { return "UpdateBoxSelect" }

// EndBoxSelect releases the rubber band.
type EndBoxSelect struct{}

func (EndBoxSelect) CommandName() string { return "EndBoxSelect" }

// ============================================================================
// VIEWPORT
// ============================================================================

// Pan moves the camera by a screen delta.
type Pan struct {
	DX float64 `json:"dx" validate:"finite"`
	DY float64 `json:"dy" validate:"finite"`
}

func (Pan) CommandName() string { return "Pan" }

// Wheel zooms at the pointer.
type Wheel struct {
	ScreenX float64 `json:"screenX" validate:"finite"`
	ScreenY float64 `json:"screenY" validate:"finite"`
	DeltaY  float64 `json:"deltaY" validate:"finite"`
	Fine    bool    `json:"fine"`
}

func (Wheel) CommandName() string { return "Wheel" }

// ZoomStep zooms in or out one button step around the screen centre.
type ZoomStep struct {
	In bool `json:"in"`
}

func (ZoomStep) CommandName() string { return "ZoomStep" }

// ResetView returns the camera to the origin at scale 1.
type ResetView struct{}

func (ResetView) CommandName() string { return "ResetView" }

// ResizeViewport reports a new screen size.
type ResizeViewport struct {
	Width  float64 `json:"width" validate:"finite,gt=0"`
	Height float64 `json:"height" validate:"finite,gt=0"`
}

func (ResizeViewport) CommandName() string { return "ResizeViewport" }

// ============================================================================
// HISTORY, CLIPBOARD, FILTER
// ============================================================================

// Undo reverts the last recorded command.
type Undo struct{}

func (Undo) CommandName() string { return "Undo" }

// Redo re-applies the last undone command.
type Redo struct{}

func (Redo) CommandName() string { return "Redo" }

// Copy puts the selected cards and the edges between them on the clipboard.
type Copy struct{}

func (Copy) CommandName() string { return "Copy" }

// Paste inserts the clipboard contents with fresh ids.
type Paste struct{}

func (Paste) CommandName() string { return "Paste" }

// SetFilter dims cards that do not match. Tag matches exactly; Query
// matches text, tags and file names case-insensitively.
type SetFilter struct {
	Query string `json:"query"`
	Tag   string `json:"tag"`
}

func (SetFilter) CommandName() string { return "SetFilter" }

// ClearFilter removes the filter.
type ClearFilter struct{}

func (ClearFilter) CommandName() string { return "ClearFilter" }

// ============================================================================
// CONNECTION GESTURE
// ============================================================================

// BeginConnect starts dragging a connection out of a card's anchor. The
// card must be the only thing selected, since anchors show only then.
type BeginConnect struct {
	NodeID shared.NodeID `json:"nodeId" validate:"required"`
	Side   geometry.Side `json:"side" validate:"required,side"`
}

func (BeginConnect) CommandName() string { return "BeginConnect" }

// UpdateConnect moves the loose end of the preview to a world point.
type UpdateConnect struct {
	X float64 `json:"x" validate:"finite"`
	Y float64 `json:"y" validate:"finite"`
}

func (UpdateConnect) CommandName() string { return "UpdateConnect" }

// EndConnect releases the gesture. With a target the edge is created.
type EndConnect struct {
	TargetID shared.NodeID `json:"targetId"`
	X        float64       `json:"x" validate:"finite"`
	Y        float64       `json:"y" validate:"finite"`
}

func (EndConnect) CommandName() string { return "EndConnect" }
