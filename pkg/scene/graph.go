package scene

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-ifcview/internal/store"
	"github.com/askiada/go-ifcview/pkg/bbox"
	"github.com/askiada/go-ifcview/pkg/geom"
)

const (
	rootVertex = "scene"
	// AnimationSteps is the number of camera positions of an animated fit.
	AnimationSteps = 30
)

// Graph is a headless Host. The scene graph is a rooted tree: the root, one
// vertex per attached model and one vertex per mesh of that model.
type Graph struct {
	mu     sync.Mutex
	store  *store.MemoryStore[string, string]
	graph  graph.Graph[string, string]
	models map[string]*geom.Model

	camera Camera
	// path holds every camera position the last fit went through.
	path []Camera

	hooksMu      sync.Mutex
	beforeRender []func()
	afterRender  []func()
	frames       int
}

// NewGraph returns an empty scene viewed by cam.
func NewGraph(cam Camera) *Graph {
	s := store.NewMemoryStore[string, string]()
	g := &Graph{
		store:  s,
		graph:  graph.NewWithStore(graph.StringHash, s, graph.Directed(), graph.PreventCycles()),
		models: make(map[string]*geom.Model),
		camera: cam,
	}
	// the store is empty, the root cannot exist yet
	_ = g.graph.AddVertex(rootVertex, graph.VertexAttribute("kind", "scene"))

	return g
}

func modelVertex(m *geom.Model) string {
	return "model:" + m.ID.String()
}

func meshVertex(model string, i int, mesh *geom.Mesh) string {
	return fmt.Sprintf("%s/%d#%d", model, i, mesh.ExpressID)
}

// Add attaches m and its meshes below the root.
func (g *Graph) Add(m *geom.Model) error {
	if m == nil {
		return ErrNilModel
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := modelVertex(m)
	if _, ok := g.models[key]; ok {
		return errors.Wrapf(ErrAlreadyAttached, "model %s", m.Name())
	}

	err := g.graph.AddVertex(key, graph.VertexAttribute("kind", "model"), graph.VertexAttribute("name", m.Name()))
	if err != nil {
		return errors.Wrapf(err, "unable to add model %s", m.Name())
	}
	err = g.graph.AddEdge(rootVertex, key)
	if err != nil {
		g.detach(key)

		return errors.Wrapf(err, "unable to link model %s", m.Name())
	}

	for i, mesh := range m.Meshes {
		meshKey := meshVertex(key, i, mesh)
		err = g.graph.AddVertex(meshKey, graph.VertexAttribute("kind", "mesh"), graph.VertexAttribute("category", mesh.Category))
		if err != nil {
			g.detach(key)

			return errors.Wrapf(err, "unable to add mesh #%d", mesh.ExpressID)
		}
		err = g.graph.AddEdge(key, meshKey)
		if err != nil {
			// not a child yet, detach would miss it
			_ = g.graph.RemoveVertex(meshKey)
			g.detach(key)

			return errors.Wrapf(err, "unable to link mesh #%d", mesh.ExpressID)
		}
	}
	g.models[key] = m

	return nil
}

// detach drops a partly added model: its meshes, its root edge and itself.
// Errors are ignored, some of the pieces may not exist.
func (g *Graph) detach(key string) {
	for _, meshKey := range g.store.Children(key) {
		_ = g.graph.RemoveEdge(key, meshKey)
		_ = g.graph.RemoveVertex(meshKey)
	}
	_ = g.graph.RemoveEdge(rootVertex, key)
	_ = g.graph.RemoveVertex(key)
}

// Remove detaches m and its meshes.
func (g *Graph) Remove(m *geom.Model) error {
	if m == nil {
		return ErrNilModel
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := modelVertex(m)
	if _, ok := g.models[key]; !ok {
		return errors.Wrapf(ErrNotAttached, "model %s", m.Name())
	}

	for _, meshKey := range g.store.Children(key) {
		err := g.graph.RemoveEdge(key, meshKey)
		if err != nil {
			return errors.Wrapf(err, "unable to unlink %s", meshKey)
		}
		err = g.graph.RemoveVertex(meshKey)
		if err != nil {
			return errors.Wrapf(err, "unable to remove %s", meshKey)
		}
	}

	err := g.graph.RemoveEdge(rootVertex, key)
	if err != nil {
		return errors.Wrapf(err, "unable to unlink model %s", m.Name())
	}
	err = g.graph.RemoveVertex(key)
	if err != nil {
		return errors.Wrapf(err, "unable to remove model %s", m.Name())
	}
	delete(g.models, key)

	return nil
}

// Models returns the attached models ordered by name.
func (g *Graph) Models() []*geom.Model {
	g.mu.Lock()
	defer g.mu.Unlock()

	res := make([]*geom.Model, 0, len(g.models))
	for _, key := range g.store.Children(rootVertex) {
		res = append(res, g.models[key])
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name() < res[j].Name()
	})

	return res
}

// Nodes returns the number of vertices, root included.
func (g *Graph) Nodes() int {
	count, _ := g.store.VertexCount()

	return count
}

// FitToVolume moves the camera to frame v. An animated fit walks the camera
// through AnimationSteps positions.
func (g *Graph) FitToVolume(v bbox.Volume, animate bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	target := Frame(g.camera, v)
	g.path = []Camera{target}
	if animate {
		g.path = Tween(g.camera, target, AnimationSteps)
	}
	g.camera = target

	return nil
}

// Camera returns the current camera.
func (g *Graph) Camera() Camera {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.camera
}

// CameraPath returns the positions of the last fit.
func (g *Graph) CameraPath() []Camera {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]Camera(nil), g.path...)
}

func (g *Graph) OnBeforeRender(fn func()) {
	g.hooksMu.Lock()
	defer g.hooksMu.Unlock()
	g.beforeRender = append(g.beforeRender, fn)
}

func (g *Graph) OnAfterRender(fn func()) {
	g.hooksMu.Lock()
	defer g.hooksMu.Unlock()
	g.afterRender = append(g.afterRender, fn)
}

// Render runs one render pass: before hooks, frame, after hooks.
func (g *Graph) Render() {
	g.hooksMu.Lock()
	before := append([]func(){}, g.beforeRender...)
	after := append([]func(){}, g.afterRender...)
	g.hooksMu.Unlock()

	for _, fn := range before {
		fn()
	}
	g.mu.Lock()
	g.frames++
	g.mu.Unlock()
	for _, fn := range after {
		fn()
	}
}

// Frames returns the number of render passes so far.
func (g *Graph) Frames() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.frames
}

var _ Host = (*Graph)(nil)
