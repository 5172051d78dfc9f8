// Package bbox computes the bounding volume of loaded models.
package bbox

import (
	"image/color"
	"sync"

	"cogentcore.org/core/math32"

	"github.com/askiada/go-ifcview/pkg/geom"
)

// Volume is the box enclosing a model and the sphere enclosing that box.
type Volume struct {
	Box    math32.Box3
	Center math32.Vector3
	Radius float32
}

// NewVolume derives the enclosing sphere of box.
func NewVolume(box math32.Box3) Volume {
	return Volume{
		Box:    box,
		Center: box.Center(),
		Radius: box.Size().Length() / 2,
	}
}

// Mesh returns the box as 12 triangles, for display as a helper object.
func (v Volume) Mesh() *geom.Mesh {
	lo, hi := v.Box.Min, v.Box.Max
	corners := []math32.Vector3{
		math32.Vec3(lo.X, lo.Y, lo.Z),
		math32.Vec3(hi.X, lo.Y, lo.Z),
		math32.Vec3(hi.X, hi.Y, lo.Z),
		math32.Vec3(lo.X, hi.Y, lo.Z),
		math32.Vec3(lo.X, lo.Y, hi.Z),
		math32.Vec3(hi.X, lo.Y, hi.Z),
		math32.Vec3(hi.X, hi.Y, hi.Z),
		math32.Vec3(lo.X, hi.Y, hi.Z),
	}

	return &geom.Mesh{
		Category:  "BOUNDINGBOX",
		Name:      "bounding box",
		Positions: corners,
		Indices: []uint32{
			0, 2, 1, 0, 3, 2, // back
			4, 5, 6, 4, 6, 7, // front
			0, 1, 5, 0, 5, 4, // bottom
			3, 7, 6, 3, 6, 2, // top
			0, 4, 7, 0, 7, 3, // left
			1, 2, 6, 1, 6, 5, // right
		},
		Color: color.RGBA{R: 255, G: 255, B: 255, A: 64},
	}
}

// Calculator accumulates models into one bounding volume.
type Calculator struct {
	mu    sync.Mutex
	box   math32.Box3
	count int
}

// NewCalculator returns an empty calculator.
func NewCalculator() *Calculator {
	return &Calculator{box: math32.B3Empty()}
}

// Reset forgets every model added so far.
func (c *Calculator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.box = math32.B3Empty()
	c.count = 0
}

// Add expands the volume by the geometry of m.
func (c *Calculator) Add(m *geom.Model) {
	if m == nil {
		return
	}
	box := m.Bounds()
	if box.IsEmpty() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.box.ExpandByBox(box)
	c.count++
}

// Volume returns the current volume. ok is false when nothing with geometry
// was added since the last Reset.
func (c *Calculator) Volume() (Volume, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count == 0 {
		return Volume{}, false
	}

	return NewVolume(c.box), true
}
