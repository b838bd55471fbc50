package shared

import (
	"brain2-canvas/internal/errors"
)

// Domain error definitions using the unified error system
var (
	// Node errors
	ErrDuplicateID = errors.Conflict(errors.CodeNodeAlreadyExists.String(), "node id already exists").
			WithResource("node").
			Build()
	ErrNodeNotFound = errors.NotFound(errors.CodeNodeNotFound.String(), "node not found").
			WithResource("node").
			Build()
	ErrInvalidGeometry = errors.Validation(errors.CodeInvalidGeometry.String(), "invalid geometry: coordinates must be finite and sizes positive").
				WithResource("node").
				Build()
	ErrNotACard = errors.Domain(errors.CodeNodeNotCard.String(), "node is not a card").
			WithResource("node").
			WithSeverity(errors.SeverityLow).
			Build()
	ErrNotAGroup = errors.Domain(errors.CodeNodeNotGroup.String(), "node is not a group").
			WithResource("node").
			WithSeverity(errors.SeverityLow).
			Build()

	// Edge errors
	ErrEdgeNotFound = errors.NotFound(errors.CodeEdgeNotFound.String(), "edge not found").
			WithResource("edge").
			Build()
	ErrDuplicateEdge = errors.Conflict(errors.CodeEdgeAlreadyExists.String(), "an edge already connects these nodes").
				WithResource("edge").
				Build()
	ErrSelfLoop = errors.Domain(errors.CodeNodeSelfConnection.String(), "cannot connect node to itself").
			WithResource("edge").
			WithSeverity(errors.SeverityLow).
			Build()

	// Group errors
	ErrMembershipCycle = errors.Domain(errors.CodeMembershipCycle.String(), "group cannot contain one of its ancestors").
				WithResource("group").
				WithSeverity(errors.SeverityHigh).
				Build()

	// Selection and gesture errors
	ErrSelectionNotIdle = errors.Domain(errors.CodeSelectionNotIdle.String(), "box selection starts only with nothing selected").
				WithResource("selection").
				WithSeverity(errors.SeverityLow).
				Build()
	ErrNoHandleTarget = errors.Domain(errors.CodeNoHandleTarget.String(), "connections start only from the single selected card").
				WithResource("selection").
				WithSeverity(errors.SeverityLow).
				Build()
	ErrGestureInProgress = errors.Domain(errors.CodeGestureInProgress.String(), "another gesture is in progress").
				WithResource("selection").
				WithSeverity(errors.SeverityLow).
				Build()

	// History errors
	ErrNothingToUndo = errors.Domain(errors.CodeNothingToUndo.String(), "nothing to undo").
				WithResource("history").
				WithSeverity(errors.SeverityLow).
				Build()
	ErrNothingToRedo = errors.Domain(errors.CodeNothingToRedo.String(), "nothing to redo").
				WithResource("history").
				WithSeverity(errors.SeverityLow).
				Build()
	ErrReplayFailed = errors.Internal(errors.CodeReplayFailed.String(), "history replay failed").
			WithResource("history").
			Build()
)

// IsSilentRejection reports whether err is one of the idempotent gesture
// rejections that the orchestrator swallows instead of surfacing.
func IsSilentRejection(err error) bool {
	code := errors.CodeOf(err)
	return code == errors.CodeEdgeAlreadyExists.String() || code == errors.CodeNodeSelfConnection.String()
}
