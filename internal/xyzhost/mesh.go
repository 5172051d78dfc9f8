package xyzhost

import (
	"fmt"
	"image/color"

	"cogentcore.org/core/math32"
	"cogentcore.org/core/xyz"

	"github.com/askiada/go-ifcview/pkg/bbox"
	"github.com/askiada/go-ifcview/pkg/geom"
)

// meshName is unique per model so that meshes of a replaced model can be
// dropped without touching the new ones.
func meshName(m *geom.Model, i int) string {
	return fmt.Sprintf("%s/%d", m.ID, i)
}

// boundsName names the bounding box helper of m.
func boundsName(m *geom.Model) string {
	return fmt.Sprintf("%s/bounds", m.ID)
}

// boundsMesh returns the translucent box around m, nil for a model without
// geometry.
func boundsMesh(m *geom.Model) *geom.Mesh {
	if m.Empty() {
		return nil
	}

	return bbox.NewVolume(m.Bounds()).Mesh()
}

// genMesh copies mesh into the flat arrays of an xyz mesh.
func genMesh(name string, mesh *geom.Mesh) *xyz.GenMesh {
	ms := &xyz.GenMesh{}
	ms.Name = name
	ms.Vertex = make(math32.ArrayF32, 0, 3*len(mesh.Positions))
	for _, p := range mesh.Positions {
		ms.Vertex = append(ms.Vertex, p.X, p.Y, p.Z)
	}
	normals := mesh.Normals()
	ms.Normal = make(math32.ArrayF32, 0, 3*len(normals))
	for _, n := range normals {
		ms.Normal = append(ms.Normal, n.X, n.Y, n.Z)
	}
	ms.TexCoord = make(math32.ArrayF32, 2*len(mesh.Positions))
	ms.Index = append(math32.ArrayU32(nil), mesh.Indices...)

	return ms
}

// GridColor is the colour of the floor grid lines.
var GridColor = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}

// gridMesh returns a flat grid on the y=0 plane: divisions+1 lines in both
// directions over a square of side size, each line a thin quad.
func gridMesh(name string, size float32, divisions int) *geom.Mesh {
	if divisions < 1 {
		divisions = 1
	}
	half := size / 2
	step := size / float32(divisions)
	width := step / 50

	mesh := &geom.Mesh{Name: name, Color: GridColor}
	quad := func(a, b, c, d math32.Vector3) {
		base := uint32(len(mesh.Positions))
		mesh.Positions = append(mesh.Positions, a, b, c, d)
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	for i := 0; i <= divisions; i++ {
		at := -half + float32(i)*step
		// along x, then along z; both face up
		quad(
			math32.Vec3(-half, 0, at+width/2), math32.Vec3(half, 0, at+width/2),
			math32.Vec3(half, 0, at-width/2), math32.Vec3(-half, 0, at-width/2),
		)
		quad(
			math32.Vec3(at-width/2, 0, -half), math32.Vec3(at-width/2, 0, half),
			math32.Vec3(at+width/2, 0, half), math32.Vec3(at+width/2, 0, -half),
		)
	}

	return mesh
}
