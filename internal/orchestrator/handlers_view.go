package orchestrator

import (
	"context"

	"brain2-canvas/internal/application/commands"
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
	"brain2-canvas/internal/selection"
)

// ============================================================================
// SELECTION
// ============================================================================

func (o *Orchestrator) selectNode(_ context.Context, cmd commands.SelectNode) error {
	app := o.app
	if _, err := app.Store.Group(cmd.NodeID); err == nil {
		app.Selection.SelectGroup(cmd.NodeID)
		return nil
	}
	if _, err := app.Store.Card(cmd.NodeID); err != nil {
		return err
	}
	app.Selection.SelectCard(cmd.NodeID, cmd.Additive)
	return nil
}

func (o *Orchestrator) selectEdge(_ context.Context, cmd commands.SelectEdge) error {
	if _, err := o.app.Store.Edge(cmd.EdgeID); err != nil {
		return err
	}
	o.app.Selection.SelectEdge(cmd.EdgeID)
	return nil
}

func (o *Orchestrator) clearSelection(_ context.Context, _ commands.ClearSelection) error {
	o.app.Selection.DeselectAll()
	return nil
}

func (o *Orchestrator) beginBoxSelect(_ context.Context, cmd commands.BeginBoxSelect) error {
	if o.drag != nil || o.connect != nil {
		return shared.ErrGestureInProgress.WithDetails("cannot box select while dragging")
	}
	return o.app.Selection.BeginBox(o.app.Viewport.ScreenToWorld(geometry.Pt(cmd.ScreenX, cmd.ScreenY)))
}

func (o *Orchestrator) updateBoxSelect(_ context.Context, cmd commands.UpdateBoxSelect) error {
	o.app.Selection.UpdateBox(o.app.Viewport.ScreenToWorld(geometry.Pt(cmd.ScreenX, cmd.ScreenY)))
	return nil
}

// endBoxSelect selects every shown card the box overlaps.
func (o *Orchestrator) endBoxSelect(_ context.Context, _ commands.EndBoxSelect) error {
	app := o.app
	if !app.Selection.Boxing() {
		return errors.Validation(errors.CodeInvalidInput.String(), "no box selection in progress").Build()
	}
	cards := app.Store.Cards()
	candidates := make([]selection.Candidate, 0, len(cards))
	for _, c := range cards {
		if !c.Hidden() {
			candidates = append(candidates, selection.Candidate{ID: c.ID(), Bounds: c.Bounds()})
		}
	}
	app.Selection.FinishBox(candidates, app.Viewport.Scale(), shared.MinBoxSelect)
	return nil
}

// ============================================================================
// VIEWPORT
// ============================================================================

func (o *Orchestrator) pan(_ context.Context, cmd commands.Pan) error {
	if cmd.DX == 0 && cmd.DY == 0 {
		return nil
	}
	o.app.Viewport.PanBy(cmd.DX, cmd.DY)
	o.app.viewportChanged()
	return nil
}

func (o *Orchestrator) wheel(_ context.Context, cmd commands.Wheel) error {
	if o.app.Viewport.Wheel(geometry.Pt(cmd.ScreenX, cmd.ScreenY), cmd.DeltaY, cmd.Fine) {
		o.app.viewportChanged()
	}
	return nil
}

func (o *Orchestrator) zoomStep(_ context.Context, cmd commands.ZoomStep) error {
	zoom := o.app.Viewport.ZoomOut
	if cmd.In {
		zoom = o.app.Viewport.ZoomIn
	}
	if zoom() {
		o.app.viewportChanged()
	}
	return nil
}

func (o *Orchestrator) resetView(_ context.Context, _ commands.ResetView) error {
	before := o.app.Viewport.State()
	o.app.Viewport.Reset()
	if o.app.Viewport.State() != before {
		o.app.viewportChanged()
	}
	return nil
}

func (o *Orchestrator) resizeViewport(_ context.Context, cmd commands.ResizeViewport) error {
	o.app.Viewport.Resize(cmd.Width, cmd.Height)
	return nil
}

// ============================================================================
// HISTORY
// ============================================================================

// undo reverts the last command. An empty stack only produces a notice.
func (o *Orchestrator) undo(_ context.Context, _ commands.Undo) error {
	o.endGestures()
	if _, err := o.app.History.Undo(); err != nil && errors.CodeOf(err) != errors.CodeNothingToUndo.String() {
		return err
	}
	o.forgetRemoved()
	return nil
}

func (o *Orchestrator) redo(_ context.Context, _ commands.Redo) error {
	o.endGestures()
	if _, err := o.app.History.Redo(); err != nil && errors.CodeOf(err) != errors.CodeNothingToRedo.String() {
		return err
	}
	o.forgetRemoved()
	return nil
}

// endGestures abandons any drag, connection or box in flight.
func (o *Orchestrator) endGestures() {
	o.drag = nil
	o.connect = nil
	o.app.Engine.ClearHighlights()
	o.app.Selection.CancelBox()
}
