package store_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ifcview/internal/store"
)

func TestRemoveVertexNeedsNoEdges(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore[string, string]()
	require.NoError(t, s.AddVertex("scene", "scene", graph.VertexProperties{}))
	require.NoError(t, s.AddVertex("model", "model", graph.VertexProperties{}))
	require.ErrorIs(t, s.AddVertex("model", "model", graph.VertexProperties{}), graph.ErrVertexAlreadyExists)
	require.NoError(t, s.AddEdge("scene", "model", graph.Edge[string]{Source: "scene", Target: "model"}))

	require.ErrorIs(t, s.RemoveVertex("model"), graph.ErrVertexHasEdges)

	require.NoError(t, s.RemoveEdge("scene", "model"))
	require.NoError(t, s.RemoveVertex("model"))
	require.ErrorIs(t, s.RemoveVertex("model"), graph.ErrVertexNotFound)

	count, err := s.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, s.Children("scene"))
}

func TestCreatesCycle(t *testing.T) {
	t.Parallel()

	g := graph.NewWithStore(graph.StringHash, store.NewMemoryStore[string, string](), graph.Directed(), graph.PreventCycles())
	for _, v := range []string{"scene", "model", "mesh"} {
		require.NoError(t, g.AddVertex(v))
	}
	require.NoError(t, g.AddEdge("scene", "model"))
	require.NoError(t, g.AddEdge("model", "mesh"))

	require.ErrorIs(t, g.AddEdge("mesh", "scene"), graph.ErrEdgeCreatesCycle)
}

func TestEdgeCount(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore[string, string]()
	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddVertex(v, v, graph.VertexProperties{}))
	}
	require.NoError(t, s.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))
	require.NoError(t, s.AddEdge("a", "c", graph.Edge[string]{Source: "a", Target: "c"}))

	count, err := s.EdgeCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.ElementsMatch(t, []string{"b", "c"}, s.Children("a"))

	_, err = s.Edge("b", "a")
	require.ErrorIs(t, err, graph.ErrEdgeNotFound)
}
