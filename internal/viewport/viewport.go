// Package viewport maps between world and screen space and decides which
// records are worth handing to the renderer.
package viewport

import (
	"math"

	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/shared"
)

// Limits bounds zooming.
type Limits struct {
	MinScale    float64
	MaxScale    float64
	WheelFactor float64
	FineWheel   float64
	ZoomStep    float64
}

// DefaultLimits returns the stock zoom limits.
func DefaultLimits() Limits {
	return Limits{
		MinScale:    shared.MinScale,
		MaxScale:    shared.MaxScale,
		WheelFactor: shared.WheelFactor,
		FineWheel:   shared.FineWheel,
		ZoomStep:    shared.ZoomStep,
	}
}

// State is the externally visible camera: offset in screen units and scale.
type State struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Viewport is the camera over the infinite canvas.
//
//	screen = world*scale + offset
type Viewport struct {
	offset geometry.Point
	scale  float64
	size   geometry.Size
	limits Limits
}

// New creates a viewport of the given screen size at the origin, scale 1.
func New(width, height float64, limits Limits) *Viewport {
	return &Viewport{
		scale:  1,
		size:   geometry.Size{Width: width, Height: height},
		limits: limits,
	}
}

// State returns the camera state.
func (v *Viewport) State() State {
	return State{X: v.offset.X, Y: v.offset.Y, Scale: v.scale}
}

// SetState replaces the camera state, clamping the scale.
func (v *Viewport) SetState(s State) {
	v.offset = geometry.Pt(s.X, s.Y)
	v.scale = v.clamp(s.Scale)
}

// Scale returns the current zoom factor.
func (v *Viewport) Scale() float64 { return v.scale }

// Size returns the screen size.
func (v *Viewport) Size() geometry.Size { return v.size }

// SetLimits replaces the zoom limits and re-clamps the current scale.
func (v *Viewport) SetLimits(l Limits) {
	v.limits = l
	v.scale = v.clamp(v.scale)
}

// Resize changes the screen size.
func (v *Viewport) Resize(width, height float64) {
	v.size = geometry.Size{Width: width, Height: height}
}

// WorldToScreen converts a world point to screen coordinates.
func (v *Viewport) WorldToScreen(p geometry.Point) geometry.Point {
	return geometry.Pt(p.X*v.scale+v.offset.X, p.Y*v.scale+v.offset.Y)
}

// ScreenToWorld converts a screen point to world coordinates.
func (v *Viewport) ScreenToWorld(p geometry.Point) geometry.Point {
	return geometry.Pt((p.X-v.offset.X)/v.scale, (p.Y-v.offset.Y)/v.scale)
}

// WorldRect returns the world-space rectangle currently on screen.
func (v *Viewport) WorldRect() geometry.Rect {
	topLeft := v.ScreenToWorld(geometry.Pt(0, 0))
	return geometry.R(topLeft.X, topLeft.Y, v.size.Width/v.scale, v.size.Height/v.scale)
}

// PanBy moves the camera by a screen-space delta.
func (v *Viewport) PanBy(dx, dy float64) {
	v.offset = v.offset.Translate(dx, dy)
}

// ZoomAt sets the scale to target, clamped, keeping the world point under
// the pointer stationary. It reports whether anything changed.
func (v *Viewport) ZoomAt(pointer geometry.Point, target float64) bool {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return false
	}
	newScale := v.clamp(target)
	if newScale == v.scale {
		return false
	}
	world := v.ScreenToWorld(pointer)
	v.offset = geometry.Pt(pointer.X-world.X*newScale, pointer.Y-world.Y*newScale)
	v.scale = newScale
	return true
}

// Wheel zooms one wheel notch at the pointer. A negative deltaY zooms in.
// Fine mode (ctrl or pinch) uses the smaller factor.
func (v *Viewport) Wheel(pointer geometry.Point, deltaY float64, fine bool) bool {
	if deltaY == 0 {
		return false
	}
	factor := v.limits.WheelFactor
	if fine {
		factor = v.limits.FineWheel
	}
	if deltaY > 0 {
		return v.ZoomAt(pointer, v.scale/factor)
	}
	return v.ZoomAt(pointer, v.scale*factor)
}

// ZoomIn zooms one button step around the screen centre.
func (v *Viewport) ZoomIn() bool {
	return v.ZoomAt(v.center(), v.scale*v.limits.ZoomStep)
}

// ZoomOut zooms out one button step around the screen centre.
func (v *Viewport) ZoomOut() bool {
	return v.ZoomAt(v.center(), v.scale/v.limits.ZoomStep)
}

// Reset returns to the origin at scale 1.
func (v *Viewport) Reset() {
	v.offset = geometry.Point{}
	v.scale = v.clamp(1)
}

func (v *Viewport) center() geometry.Point {
	return geometry.Pt(v.size.Width/2, v.size.Height/2)
}

func (v *Viewport) clamp(scale float64) float64 {
	return math.Min(v.limits.MaxScale, math.Max(v.limits.MinScale, scale))
}
