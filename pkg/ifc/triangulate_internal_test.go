package ifc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangleArea(pts []vec, tri [3]int) float64 {
	a, b, c := pts[tri[0]], pts[tri[1]], pts[tri[2]]

	return b.sub(a).cross(c.sub(a)).length() / 2
}

func TestTriangulateConcave(t *testing.T) {
	t.Parallel()

	// L shape, area 3
	pts := []vec{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}}
	tris := triangulate(pts)
	require.Len(t, tris, 4)

	total := 0.0
	for _, tri := range tris {
		total += triangleArea(pts, tri)
	}
	assert.InDelta(t, 3, total, 1e-9)
}

func TestTriangulateKeepsWinding(t *testing.T) {
	t.Parallel()

	// clockwise seen from +z
	pts := []vec{{0, 0, 5}, {0, 1, 5}, {1, 1, 5}, {1, 0, 5}}
	tris := triangulate(pts)
	require.Len(t, tris, 2)
	for _, tri := range tris {
		n := pts[tri[1]].sub(pts[tri[0]]).cross(pts[tri[2]].sub(pts[tri[0]]))
		assert.Less(t, n[2], 0.0)
	}
}

func TestTriangulateCollinear(t *testing.T) {
	t.Parallel()

	pts := []vec{{0, 0}, {1, 0}, {2, 0}, {2, 2}, {0, 2}}
	tris := triangulate(pts)

	total := 0.0
	for _, tri := range tris {
		area := triangleArea(pts, tri)
		assert.Greater(t, area, 0.0)
		total += area
	}
	assert.InDelta(t, 4, total, 1e-9)
}

func TestTriangulateDegenerate(t *testing.T) {
	t.Parallel()

	assert.Empty(t, triangulate(nil))
	assert.Empty(t, triangulate([]vec{{0, 0}, {1, 1}}))
	assert.Empty(t, triangulate([]vec{{0, 0}, {1, 0}, {2, 0}, {3, 0}}))
	assert.Equal(t, [][3]int{{0, 1, 2}}, triangulate([]vec{{0, 0}, {1, 0}, {0, 1}}))
}
