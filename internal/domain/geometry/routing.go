package geometry

import (
	"fmt"
	"math"
)

// Side names one of the four anchor points of a node's bounding box.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Sides is the canonical enumeration order. NearestSides breaks ties by the
// first minimum found in this order, so it must not be reordered.
var Sides = [4]Side{SideTop, SideRight, SideBottom, SideLeft}

// ParseSide converts a wire string into a Side.
func ParseSide(s string) (Side, error) {
	side := Side(s)
	if !side.Valid() {
		return "", fmt.Errorf("unknown side %q", s)
	}
	return side, nil
}

// Valid reports whether s is one of the four sides.
func (s Side) Valid() bool {
	switch s {
	case SideTop, SideRight, SideBottom, SideLeft:
		return true
	}
	return false
}

// IsHorizontal reports whether a route leaves this side along the x axis.
func (s Side) IsHorizontal() bool {
	return s == SideLeft || s == SideRight
}

// Opposite returns the facing side.
func (s Side) Opposite() Side {
	switch s {
	case SideTop:
		return SideBottom
	case SideBottom:
		return SideTop
	case SideLeft:
		return SideRight
	default:
		return SideLeft
	}
}

// outward returns the unit vector pointing away from the node on this side.
func (s Side) outward() (float64, float64) {
	switch s {
	case SideTop:
		return 0, -1
	case SideBottom:
		return 0, 1
	case SideLeft:
		return -1, 0
	default:
		return 1, 0
	}
}

// AnchorPosition returns the midpoint of the requested side in world space.
// An invalid side falls back to the right anchor.
func AnchorPosition(r Rect, side Side) Point {
	switch side {
	case SideTop:
		return Point{X: r.X + r.Width/2, Y: r.Y}
	case SideBottom:
		return Point{X: r.X + r.Width/2, Y: r.Y + r.Height}
	case SideLeft:
		return Point{X: r.X, Y: r.Y + r.Height/2}
	default:
		return Point{X: r.X + r.Width, Y: r.Y + r.Height/2}
	}
}

// NearestSides evaluates all sixteen side combinations and returns the pair
// whose anchors are closest. Ties keep the first minimum in Sides×Sides order
// with the source side as the outer loop.
func NearestSides(from, to Rect) (Side, Side) {
	best := math.Inf(1)
	fromSide, toSide := SideRight, SideLeft
	for _, s1 := range Sides {
		p1 := AnchorPosition(from, s1)
		for _, s2 := range Sides {
			d := p1.DistanceTo(AnchorPosition(to, s2))
			if d < best {
				best = d
				fromSide, toSide = s1, s2
			}
		}
	}
	return fromSide, toSide
}

// StandOff extends p outward from side by offset.
func StandOff(p Point, side Side, offset float64) Point {
	dx, dy := side.outward()
	return Point{X: p.X + dx*offset, Y: p.Y + dy*offset}
}

// ManhattanRoute builds an orthogonal path from start to end. Both endpoints
// are first pushed out by offset along their sides so the route leaves and
// enters perpendicular to the node edge. When the pushed points already
// progress toward the target a single elbow is used, otherwise a mid-line
// produces a Z with two elbows. The result is [start, p1, elbow..., p2, end].
func ManhattanRoute(start, end Point, fromSide, toSide Side, offset float64) []Point {
	p1 := StandOff(start, fromSide, offset)
	p2 := StandOff(end, toSide, offset)

	points := make([]Point, 0, 6)
	points = append(points, start, p1)

	if fromSide.IsHorizontal() {
		if (fromSide == SideRight && p2.X > p1.X) || (fromSide == SideLeft && p2.X < p1.X) {
			points = append(points, Point{X: p1.X, Y: p2.Y})
		} else {
			midY := (p1.Y + p2.Y) / 2
			points = append(points, Point{X: p1.X, Y: midY}, Point{X: p2.X, Y: midY})
		}
	} else {
		if (fromSide == SideBottom && p2.Y > p1.Y) || (fromSide == SideTop && p2.Y < p1.Y) {
			points = append(points, Point{X: p2.X, Y: p1.Y})
		} else {
			midX := (p1.X + p2.X) / 2
			points = append(points, Point{X: midX, Y: p1.Y}, Point{X: midX, Y: p2.Y})
		}
	}

	return append(points, p2, end)
}

// ManhattanMidpoint returns the midpoint of the route's central segment, the
// span between the third and fourth points, or of the whole path when it is
// too short to have one. It is where an edge label sits.
func ManhattanMidpoint(points []Point) Point {
	switch {
	case len(points) == 0:
		return Point{}
	case len(points) >= 4:
		return points[2].Midpoint(points[3])
	default:
		return points[0].Midpoint(points[len(points)-1])
	}
}

// Route is the full routing result for one edge.
type Route struct {
	FromSide Side    `json:"fromSide"`
	ToSide   Side    `json:"toSide"`
	Points   []Point `json:"points"`
	LabelAt  Point   `json:"labelAt"`
}

// RouteBetween picks the nearest sides of two rectangles and routes between
// their anchors.
func RouteBetween(from, to Rect, offset float64) Route {
	fromSide, toSide := NearestSides(from, to)
	return RouteWithSides(from, to, fromSide, toSide, offset)
}

// RouteWithSides routes between fixed anchor sides.
func RouteWithSides(from, to Rect, fromSide, toSide Side, offset float64) Route {
	points := ManhattanRoute(AnchorPosition(from, fromSide), AnchorPosition(to, toSide), fromSide, toSide, offset)
	return Route{
		FromSide: fromSide,
		ToSide:   toSide,
		Points:   points,
		LabelAt:  ManhattanMidpoint(points),
	}
}

// ClosestSide returns the side of r whose edge line is nearest to p. It is
// used to pick the target anchor when a connection is dropped on a node.
func ClosestSide(r Rect, p Point) Side {
	distances := [4]float64{
		math.Abs(p.Y - r.Y),
		math.Abs(p.X - r.Right()),
		math.Abs(p.Y - r.Bottom()),
		math.Abs(p.X - r.X),
	}
	best := 0
	for i := 1; i < len(distances); i++ {
		if distances[i] < distances[best] {
			best = i
		}
	}
	return Sides[best]
}

// InferEntrySide guesses which side of an unknown target a dragged connection
// will enter, from the dominant drag direction.
func InferEntrySide(from, pointer Point) Side {
	dx := pointer.X - from.X
	dy := pointer.Y - from.Y
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return SideLeft
		}
		return SideRight
	}
	if dy > 0 {
		return SideTop
	}
	return SideBottom
}
