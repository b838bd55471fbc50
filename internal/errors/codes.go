package errors

// ErrorCode represents a unique error code for specific error scenarios
type ErrorCode string

// String returns the code as a plain string.
func (c ErrorCode) String() string {
	return string(c)
}

// Domain error codes
const (
	// Node-related errors
	CodeNodeNotFound      ErrorCode = "NODE_NOT_FOUND"
	CodeNodeAlreadyExists ErrorCode = "NODE_ALREADY_EXISTS"
	CodeNodeNotCard       ErrorCode = "NODE_NOT_CARD"
	CodeNodeNotGroup      ErrorCode = "NODE_NOT_GROUP"
	CodeInvalidGeometry   ErrorCode = "INVALID_GEOMETRY"

	// Edge-related errors
	CodeEdgeNotFound       ErrorCode = "EDGE_NOT_FOUND"
	CodeEdgeAlreadyExists  ErrorCode = "EDGE_ALREADY_EXISTS"
	CodeNodeSelfConnection ErrorCode = "NODE_SELF_CONNECTION"

	// Group membership errors
	CodeMembershipCycle ErrorCode = "MEMBERSHIP_CYCLE"

	// History errors
	CodeNothingToUndo  ErrorCode = "NOTHING_TO_UNDO"
	CodeNothingToRedo  ErrorCode = "NOTHING_TO_REDO"
	CodeReplayFailed   ErrorCode = "REPLAY_FAILED"
	CodeUnknownCommand ErrorCode = "UNKNOWN_COMMAND"

	// Gesture errors
	CodeSelectionNotIdle  ErrorCode = "SELECTION_NOT_IDLE"
	CodeNoHandleTarget    ErrorCode = "NO_HANDLE_TARGET"
	CodeGestureInProgress ErrorCode = "GESTURE_IN_PROGRESS"

	// Validation errors
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// Dispatch errors
	CodeHandlerNotFound      ErrorCode = "HANDLER_NOT_FOUND"
	CodeHandlerAlreadyExists ErrorCode = "HANDLER_ALREADY_EXISTS"
	CodePanicRecovered       ErrorCode = "PANIC_RECOVERED"

	// Infrastructure errors
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
	CodeEventPublishFailed ErrorCode = "EVENT_PUBLISH_FAILED"
	CodeEventBufferFull    ErrorCode = "EVENT_BUFFER_FULL"
	CodeCodecFailed        ErrorCode = "CODEC_FAILED"
	CodeClipboardFailed    ErrorCode = "CLIPBOARD_FAILED"
)
