package xyzhost

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ifcview/pkg/geom"
)

func TestGenMesh(t *testing.T) {
	t.Parallel()

	mesh := &geom.Mesh{
		Positions: []math32.Vector3{{X: 0}, {X: 1}, {Y: 1}},
		Indices:   []uint32{0, 1, 2},
	}
	ms := genMesh("m", mesh)

	assert.Equal(t, "m", ms.Name)
	assert.Equal(t, math32.ArrayF32{0, 0, 0, 1, 0, 0, 0, 1, 0}, ms.Vertex)
	assert.Equal(t, math32.ArrayF32{0, 0, 1, 0, 0, 1, 0, 0, 1}, ms.Normal)
	assert.Len(t, ms.TexCoord, 6)
	assert.Equal(t, math32.ArrayU32{0, 1, 2}, ms.Index)

	numVertex, numIndex, hasColor := ms.MeshSize()
	assert.Equal(t, 3, numVertex)
	assert.Equal(t, 3, numIndex)
	assert.False(t, hasColor)

	// the xyz mesh owns its indices
	ms.Index[0] = 9
	assert.Equal(t, uint32(0), mesh.Indices[0])
}

func TestMeshName(t *testing.T) {
	t.Parallel()

	a, b := geom.NewModel("a"), geom.NewModel("a")
	assert.NotEqual(t, meshName(a, 0), meshName(b, 0))
	assert.NotEqual(t, meshName(a, 0), meshName(a, 1))
}

func TestGridMesh(t *testing.T) {
	t.Parallel()

	grid := gridMesh("grid", 10, 10)
	require.Len(t, grid.Positions, 11*2*4)
	assert.Equal(t, 11*2*2, grid.Triangles())
	assert.Equal(t, GridColor, grid.Color)

	box := grid.Bounds()
	assert.InDelta(t, -5.01, box.Min.X, 1e-4)
	assert.InDelta(t, 5.01, box.Max.X, 1e-4)
	assert.InDelta(t, 0, box.Min.Y, 1e-6)
	assert.InDelta(t, 0, box.Max.Y, 1e-6)
	assert.InDelta(t, 5.01, box.Max.Z, 1e-4)

	for _, n := range grid.Normals() {
		assert.InDelta(t, 1, n.Y, 1e-6)
	}

	assert.Len(t, gridMesh("grid", 1, 0).Positions, 2*2*4)
}

func TestBoundsMesh(t *testing.T) {
	t.Parallel()

	m := geom.NewModel("house")
	assert.Nil(t, boundsMesh(m))

	m.Meshes = []*geom.Mesh{{
		Positions: []math32.Vector3{math32.Vec3(-1, 0, 0), math32.Vec3(2, 3, 0), math32.Vec3(0, 0, 4)},
		Indices:   []uint32{0, 1, 2},
	}}
	box := boundsMesh(m)
	require.NotNil(t, box)
	assert.Equal(t, 12, box.Triangles())
	assert.Equal(t, math32.Box3{Min: math32.Vec3(-1, 0, 0), Max: math32.Vec3(2, 3, 4)}, box.Bounds())
	assert.Less(t, box.Color.A, uint8(255))

	assert.NotEqual(t, boundsName(m), meshName(m, 0))
}
