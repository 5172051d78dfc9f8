// Package geom holds the renderable result of loading a model: named
// triangle meshes grouped into a model node.
package geom

import (
	"image/color"

	"cogentcore.org/core/math32"
	"github.com/google/uuid"
)

// Mesh is the triangulated geometry of one building element.
type Mesh struct {
	// ExpressID is the STEP instance id of the element (#id).
	ExpressID int
	// Category is the upper-case entity type, e.g. IFCWALL.
	Category string
	// GlobalID is the element GUID when the file provides one.
	GlobalID string
	Name     string

	Positions []math32.Vector3
	// Indices holds three vertex indices per triangle.
	Indices []uint32
	Color   color.RGBA
}

// Triangles returns the number of triangles.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// Bounds returns the box enclosing every vertex.
func (m *Mesh) Bounds() math32.Box3 {
	box := math32.B3Empty()
	for _, p := range m.Positions {
		box.ExpandByPoint(p)
	}

	return box
}

// Translate moves every vertex by offset.
func (m *Mesh) Translate(offset math32.Vector3) {
	for i := range m.Positions {
		m.Positions[i] = m.Positions[i].Add(offset)
	}
}

// Normals returns one flat normal per vertex, averaged over the triangles
// sharing it.
func (m *Mesh) Normals() []math32.Vector3 {
	normals := make([]math32.Vector3, len(m.Positions))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		n := m.Positions[b].Sub(m.Positions[a]).Cross(m.Positions[c].Sub(m.Positions[a]))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i, n := range normals {
		if n.Length() > 0 {
			normals[i] = n.Normal()
		}
	}

	return normals
}

// Model is a loaded file: the node the pipeline attaches to the scene.
type Model struct {
	ID   uuid.UUID
	name string

	// Schema is the FILE_SCHEMA of the source, e.g. IFC4.
	Schema string
	Meshes []*Mesh
	// Offset is the translation applied by coordinate normalization.
	Offset math32.Vector3
}

// NewModel returns an empty model with a fresh id.
func NewModel(name string) *Model {
	return &Model{ID: uuid.New(), name: name}
}

func (m *Model) Name() string {
	return m.name
}

func (m *Model) SetName(name string) {
	m.name = name
}

// Empty reports whether the model has no geometry to show.
func (m *Model) Empty() bool {
	if m == nil {
		return true
	}
	for _, mesh := range m.Meshes {
		if len(mesh.Indices) > 0 {
			return false
		}
	}

	return true
}

// Bounds returns the box enclosing every mesh.
func (m *Model) Bounds() math32.Box3 {
	box := math32.B3Empty()
	for _, mesh := range m.Meshes {
		if len(mesh.Positions) == 0 {
			continue
		}
		box.ExpandByBox(mesh.Bounds())
	}

	return box
}

// Categories counts meshes per category.
func (m *Model) Categories() map[string]int {
	res := make(map[string]int)
	for _, mesh := range m.Meshes {
		res[mesh.Category]++
	}

	return res
}

// Triangles returns the number of triangles over all meshes.
func (m *Model) Triangles() int {
	total := 0
	for _, mesh := range m.Meshes {
		total += mesh.Triangles()
	}

	return total
}
