package bbox_test

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ifcview/pkg/bbox"
	"github.com/askiada/go-ifcview/pkg/geom"
)

func cube(min, max math32.Vector3) *geom.Model {
	m := geom.NewModel("cube")
	m.Meshes = []*geom.Mesh{bbox.NewVolume(math32.Box3{Min: min, Max: max}).Mesh()}

	return m
}

func TestCalculatorEmpty(t *testing.T) {
	t.Parallel()

	calc := bbox.NewCalculator()
	_, ok := calc.Volume()
	assert.False(t, ok)

	calc.Add(nil)
	calc.Add(geom.NewModel("no geometry"))
	_, ok = calc.Volume()
	assert.False(t, ok)
}

func TestCalculatorResetReplacesVolume(t *testing.T) {
	t.Parallel()

	calc := bbox.NewCalculator()
	calc.Add(cube(math32.Vec3(0, 0, 0), math32.Vec3(2, 2, 2)))

	vol, ok := calc.Volume()
	require.True(t, ok)
	assert.Equal(t, math32.Vec3(1, 1, 1), vol.Center)

	calc.Reset()
	calc.Add(cube(math32.Vec3(10, 0, 0), math32.Vec3(14, 3, 0)))

	vol, ok = calc.Volume()
	require.True(t, ok)
	assert.Equal(t, math32.Vec3(10, 0, 0), vol.Box.Min)
	assert.Equal(t, math32.Vec3(14, 3, 0), vol.Box.Max)
	assert.InDelta(t, 2.5, vol.Radius, 1e-6)
}

func TestCalculatorUnion(t *testing.T) {
	t.Parallel()

	calc := bbox.NewCalculator()
	calc.Add(cube(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1)))
	calc.Add(cube(math32.Vec3(-1, -1, -1), math32.Vec3(0, 0, 0)))

	vol, ok := calc.Volume()
	require.True(t, ok)
	assert.Equal(t, math32.Vec3(-1, -1, -1), vol.Box.Min)
	assert.Equal(t, math32.Vec3(1, 1, 1), vol.Box.Max)
}

func TestVolumeMesh(t *testing.T) {
	t.Parallel()

	vol := bbox.NewVolume(math32.Box3{Min: math32.Vec3(0, 0, 0), Max: math32.Vec3(1, 2, 3)})
	mesh := vol.Mesh()
	assert.Equal(t, 12, mesh.Triangles())
	assert.Equal(t, vol.Box, mesh.Bounds())
}
