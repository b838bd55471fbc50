package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/graph"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	_, ok, err := m.Read()
	require.NoError(t, err)
	assert.False(t, ok)

	sub := graph.Subgraph{Nodes: []graph.NodeSnapshot{{ID: "a", Kind: graph.KindCard, Bounds: geometry.R(0, 0, 200, 150), Tags: []string{"x"}}}}
	require.NoError(t, m.Write(sub))
	sub.Nodes[0].Tags[0] = "mutated"

	got, ok, err := m.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, got.Nodes[0].Tags)

	got.Nodes[0].ID = "changed"
	again, _, _ := m.Read()
	assert.Equal(t, "a", string(again.Nodes[0].ID))
}
