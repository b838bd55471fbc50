package graph

import (
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/shared"
)

// Edge is a routed connection between two nodes.
type Edge struct {
	id       shared.EdgeID
	from     shared.NodeID
	to       shared.NodeID
	fromSide geometry.Side
	toSide   geometry.Side
	label    string
	color    string
	points   []geometry.Point
	labelAt  geometry.Point
}

// EdgeSpec holds the attributes used to create an edge. Blank sides are
// chosen by NearestSides.
type EdgeSpec struct {
	ID       shared.EdgeID
	From     shared.NodeID
	To       shared.NodeID
	FromSide geometry.Side
	ToSide   geometry.Side
	Label    string
	Color    string
}

func (e *Edge) ID() shared.EdgeID { return e.id }
func (e *Edge) From() shared.NodeID { return e.from }
func (e *Edge) To() shared.NodeID { return e.to }
func (e *Edge) FromSide() geometry.Side { return e.fromSide }
func (e *Edge) ToSide() geometry.Side { return e.toSide }
func (e *Edge) Label() string { return e.label }
func (e *Edge) LabelAt() geometry.Point { return e.labelAt }

// Color returns the edge colour, falling back to the default stroke.
func (e *Edge) Color() string {
	if e.color == "" {
		return shared.DefaultEdgeColor
	}
	return e.color
}

// Points returns a copy of the current route.
func (e *Edge) Points() []geometry.Point {
	return append([]geometry.Point(nil), e.points...)
}

// HasNode reports whether id is one of the endpoints.
func (e *Edge) HasNode(id shared.NodeID) bool {
	return e.from == id || e.to == id
}

// ConnectsNodes reports whether the edge joins a and b in either direction.
func (e *Edge) ConnectsNodes(a, b shared.NodeID) bool {
	return (e.from == a && e.to == b) || (e.from == b && e.to == a)
}

// Other returns the endpoint opposite id.
func (e *Edge) Other(id shared.NodeID) shared.NodeID {
	if e.from == id {
		return e.to
	}
	return e.from
}

func (e *Edge) applyRoute(route geometry.Route) {
	e.fromSide = route.FromSide
	e.toSide = route.ToSide
	e.points = route.Points
	e.labelAt = route.LabelAt
}

// pairKey identifies the unordered pair of endpoints.
type pairKey struct {
	a, b shared.NodeID
}

func makePairKey(x, y shared.NodeID) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}
