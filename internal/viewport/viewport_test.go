package viewport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brain2-canvas/internal/domain/geometry"
	canvas "brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
)

func TestViewport_RoundTrip(t *testing.T) {
	v := New(800, 600, DefaultLimits())
	v.SetState(State{X: 120, Y: -40, Scale: 2})

	world := geometry.Pt(13, 27)
	screen := v.WorldToScreen(world)
	assert.Equal(t, geometry.Pt(146, 14), screen)
	assert.True(t, world.Equals(v.ScreenToWorld(screen)))
}

func TestViewport_ZoomAtKeepsPointerStationary(t *testing.T) {
	v := New(800, 600, DefaultLimits())
	v.SetState(State{X: 50, Y: 30, Scale: 1})
	pointer := geometry.Pt(400, 300)
	before := v.ScreenToWorld(pointer)

	require.True(t, v.ZoomAt(pointer, 2.5))
	assert.Equal(t, 2.5, v.Scale())
	assert.True(t, before.Equals(v.ScreenToWorld(pointer)))
}

func TestViewport_ScaleIsClamped(t *testing.T) {
	tests := []struct {
		name     string
		target   float64
		expected float64
	}{
		{"below minimum", 0.001, shared.MinScale},
		{"above maximum", 42, shared.MaxScale},
		{"inside range", 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(800, 600, DefaultLimits())
			v.ZoomAt(geometry.Pt(0, 0), tt.target)
			assert.Equal(t, tt.expected, v.Scale())
		})
	}

	v := New(800, 600, DefaultLimits())
	v.SetState(State{Scale: shared.MaxScale})
	assert.False(t, v.ZoomIn(), "zooming past the clamp is a no-op")
}

func TestViewport_WheelAndSteps(t *testing.T) {
	v := New(800, 600, DefaultLimits())
	require.True(t, v.Wheel(geometry.Pt(0, 0), -100, false))
	assert.InDelta(t, 1.05, v.Scale(), 1e-9)
	require.True(t, v.Wheel(geometry.Pt(0, 0), 100, true))
	assert.InDelta(t, 1.05/1.01, v.Scale(), 1e-9)
	assert.False(t, v.Wheel(geometry.Pt(0, 0), 0, false))

	v.Reset()
	require.True(t, v.ZoomIn())
	assert.InDelta(t, 1.2, v.Scale(), 1e-9)
	require.True(t, v.ZoomOut())
	assert.InDelta(t, 1.0, v.Scale(), 1e-9)

	v.PanBy(10, 20)
	v.Reset()
	assert.Equal(t, State{Scale: 1}, v.State())
}

func TestCuller(t *testing.T) {
	v := New(1000, 1000, DefaultLimits())
	c := NewCuller(0)
	assert.Equal(t, shared.CullMargin, c.Margin())

	mk := func(id string, x, y float64) canvas.Node {
		n, err := canvas.NewCard(canvas.CardSpec{ID: shared.NodeID(id), Bounds: geometry.R(x, y, 200, 150)})
		require.NoError(t, err)
		return n
	}
	near := mk("near", 1400, 0)
	far := mk("far", 1600, 0)
	neg := mk("neg", -500, -500)
	nodes := []canvas.Node{near, far, neg}

	visible := c.VisibleNodes(v, nodes)
	assert.Equal(t, []canvas.Node{near, neg}, visible)

	s := canvas.NewStore()
	for _, n := range nodes {
		require.NoError(t, s.AddNode(n))
	}
	fromVisible, err := s.AddEdge(canvas.EdgeSpec{From: "near", To: "far"})
	require.NoError(t, err)
	_, err = s.AddEdge(canvas.EdgeSpec{From: "far", To: "neg"})
	require.NoError(t, err)

	assert.Equal(t, []*canvas.Edge{fromVisible}, c.VisibleEdges(visible, s.Edges()))
}

func TestDebouncer_CoalescesToLatest(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []State
	)
	d := NewDebouncer(20*time.Millisecond, func(s State) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, s)
	})

	for i := 1; i <= 5; i++ {
		d.Trigger(State{X: float64(i), Scale: 1})
	}
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, State{X: 5, Scale: 1}, calls[0])
	mu.Unlock()
}

func TestDebouncer_FlushAndStop(t *testing.T) {
	var got []State
	d := NewDebouncer(time.Hour, func(s State) { got = append(got, s) })

	d.Trigger(State{Scale: 2})
	d.Flush()
	assert.Equal(t, []State{{Scale: 2}}, got)

	d.Flush()
	assert.Len(t, got, 1, "nothing pending")

	d.Stop()
	d.Trigger(State{Scale: 3})
	assert.False(t, d.Pending())
}

func TestDebouncer_SetDelay(t *testing.T) {
	fired := make(chan State, 1)
	d := NewDebouncer(time.Hour, func(s State) { fired <- s })

	d.SetDelay(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, d.Delay())

	d.Trigger(State{Scale: 4})
	select {
	case s := <-fired:
		assert.Equal(t, State{Scale: 4}, s)
	case <-time.After(time.Second):
		t.Fatal("debounced call did not fire")
	}
}
