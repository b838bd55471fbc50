package shared

import "time"

// Geometry limits
const (
	MinNodeWidth  = 200.0
	MinNodeHeight = 150.0

	// RouteStandOff is how far a route leaves a node before its first elbow.
	RouteStandOff = 30.0

	// GroupHeaderHeight is the height of a group's header band; a collapsed
	// group renders only this band.
	GroupHeaderHeight = 36.0

	// GroupPadding surrounds cards when a group is created around a selection.
	GroupPadding = 30.0

	// PasteOffset shifts pasted nodes so they do not cover the originals.
	PasteOffset = 50.0

	// MaxTitleLength bounds Card.Title.
	MaxTitleLength = 50
)

// Viewport limits
const (
	MinScale      = 0.05
	MaxScale      = 5.0
	CullMargin    = 500.0
	WheelFactor   = 1.05
	FineWheel     = 1.01
	ZoomStep      = 1.2
	MinBoxSelect  = 10.0
	ViewportDelay = 250 * time.Millisecond
)

// History limits
const (
	DefaultHistoryLimit = 50
)

// Default styling handed to the renderer when a record carries none.
const (
	DefaultEdgeColor = "#64748b"
)
