// Package xyzhost shows the viewer scene in a Cogent Core window.
package xyzhost

import (
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"

	"cogentcore.org/core/colors"
	"cogentcore.org/core/core"
	"cogentcore.org/core/math32"
	"cogentcore.org/core/xyz"
	"cogentcore.org/core/xyz/xyzcore"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-ifcview/pkg/bbox"
	"github.com/askiada/go-ifcview/pkg/geom"
	"github.com/askiada/go-ifcview/pkg/scene"
)

// ErrClosed is returned once the window is gone.
var ErrClosed = errors.New("scene host closed")

const (
	gridName      = "grid"
	gridSize      = 100
	gridDivisions = 100
)

// Host is a scene.Host drawing into an xyz scene. Add and Remove may be called
// from any goroutine. FitToVolume must run on the GUI thread, as button
// handlers do.
type Host struct {
	editor *xyzcore.SceneEditor
	widget *xyzcore.Scene
	sc     *xyz.Scene
	logger *slog.Logger

	mu     sync.Mutex
	groups map[uuid.UUID]*xyz.Group
	meshes map[uuid.UUID][]string
	camera scene.Camera
	path   []scene.Camera

	closed atomic.Bool
	bounds bool

	hooksMu      sync.Mutex
	beforeRender []func()
	afterRender  []func()
	drawn        bool
}

var _ scene.Host = (*Host)(nil)

type settings struct {
	logger      *slog.Logger
	camera      scene.Camera
	transparent bool
	grid        bool
	bounds      bool
}

// Option configures a Host.
type Option func(*settings)

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithCamera sets the initial camera.
func WithCamera(cam scene.Camera) Option {
	return func(s *settings) {
		s.camera = cam
	}
}

// WithTransparentBackground lets the window show through the scene.
func WithTransparentBackground(transparent bool) Option {
	return func(s *settings) {
		s.transparent = transparent
	}
}

// WithGrid toggles the floor grid.
func WithGrid(grid bool) Option {
	return func(s *settings) {
		s.grid = grid
	}
}

// WithBounds draws a translucent bounding box around every model.
func WithBounds(bounds bool) Option {
	return func(s *settings) {
		s.bounds = bounds
	}
}

// New adds a scene editor to parent and returns its host.
func New(parent core.Widget, opts ...Option) *Host {
	cfg := settings{
		logger:      slog.Default(),
		camera:      scene.DefaultCamera(),
		transparent: true,
		grid:        true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	editor := xyzcore.NewSceneEditor(parent)
	editor.UpdateWidget()

	h := &Host{
		editor: editor,
		widget: editor.SceneWidget(),
		sc:     editor.SceneXYZ(),
		logger: cfg.logger,
		groups: make(map[uuid.UUID]*xyz.Group),
		meshes: make(map[uuid.UUID][]string),
		bounds: cfg.bounds,
	}

	if cfg.transparent {
		h.sc.Background = colors.Uniform(color.RGBA{})
	}
	xyz.NewAmbient(h.sc, "ambient", 0.3, xyz.DirectSun)
	dir := xyz.NewDirectional(h.sc, "dir", 1, xyz.DirectSun)
	dir.Pos.Set(0, 2, 1)

	if cfg.grid {
		grid := gridMesh(gridName, gridSize, gridDivisions)
		ms := genMesh(gridName, grid)
		h.sc.SetMesh(ms)
		xyz.NewSolid(h.sc).SetMesh(ms).SetColor(grid.Color).SetName(gridName)
	}

	h.apply(cfg.camera)
	h.sc.SaveCamera("default")
	h.widget.Animate(h.tick)

	return h
}

// Close makes later Add and Remove calls fail instead of waiting for a
// window that will not render again.
func (h *Host) Close() {
	h.closed.Store(true)
}

// Editor returns the scene editor widget.
func (h *Host) Editor() *xyzcore.SceneEditor {
	return h.editor
}

func (h *Host) Add(m *geom.Model) error {
	if m == nil {
		return scene.ErrNilModel
	}
	if h.closed.Load() {
		return ErrClosed
	}

	// render lock first: the paint tick holds it while taking mu
	h.widget.AsyncLock()
	defer h.widget.AsyncUnlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.groups[m.ID]; ok {
		return errors.Wrapf(scene.ErrAlreadyAttached, "model %s", m.Name())
	}

	gp := xyz.NewGroup(h.sc)
	gp.SetName(m.Name())
	names := make([]string, 0, len(m.Meshes))
	for i, mesh := range m.Meshes {
		if len(mesh.Indices) == 0 {
			continue
		}
		name := meshName(m, i)
		ms := genMesh(name, mesh)
		h.sc.SetMesh(ms)
		xyz.NewSolid(gp).SetMesh(ms).SetColor(mesh.Color).SetName(name)
		names = append(names, name)
	}
	if box := boundsMesh(m); h.bounds && box != nil {
		name := boundsName(m)
		ms := genMesh(name, box)
		h.sc.SetMesh(ms)
		xyz.NewSolid(gp).SetMesh(ms).SetColor(box.Color).SetName(name)
		names = append(names, name)
	}
	h.groups[m.ID] = gp
	h.meshes[m.ID] = names

	h.sc.SetNeedsUpdate()
	h.widget.NeedsRender()
	h.logger.Debug("model added to scene", slog.String("model", m.Name()), slog.Int("meshes", len(names)))

	return nil
}

func (h *Host) Remove(m *geom.Model) error {
	if m == nil {
		return scene.ErrNilModel
	}
	if h.closed.Load() {
		return ErrClosed
	}

	h.widget.AsyncLock()
	defer h.widget.AsyncUnlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	gp, ok := h.groups[m.ID]
	if !ok {
		return errors.Wrapf(scene.ErrNotAttached, "model %s", m.Name())
	}

	gp.Delete()
	for _, name := range h.meshes[m.ID] {
		h.sc.Meshes.DeleteKey(name)
	}
	delete(h.groups, m.ID)
	delete(h.meshes, m.ID)

	h.sc.SetNeedsUpdate()
	h.widget.NeedsRender()

	return nil
}

// FitToVolume frames v. An animated fit moves the camera over the next
// scene.AnimationSteps frames.
func (h *Host) FitToVolume(v bbox.Volume, animate bool) error {
	h.mu.Lock()
	target := scene.Frame(h.camera, v)
	if animate {
		h.path = scene.Tween(h.camera, target, scene.AnimationSteps)
		h.mu.Unlock()
		h.widget.NeedsRender()

		return nil
	}
	h.path = nil
	h.mu.Unlock()

	h.apply(target)

	return nil
}

func (h *Host) OnBeforeRender(fn func()) {
	h.hooksMu.Lock()
	defer h.hooksMu.Unlock()
	h.beforeRender = append(h.beforeRender, fn)
}

func (h *Host) OnAfterRender(fn func()) {
	h.hooksMu.Lock()
	defer h.hooksMu.Unlock()
	h.afterRender = append(h.afterRender, fn)
}

// tick runs on every paint tick, before the scene renders. The frame drawn
// during the previous tick is closed first.
func (h *Host) tick(_ *core.Animation) {
	h.hooksMu.Lock()
	before := append([]func(){}, h.beforeRender...)
	after := append([]func(){}, h.afterRender...)
	drawn := h.drawn
	h.drawn = true
	h.hooksMu.Unlock()

	if drawn {
		for _, fn := range after {
			fn()
		}
	}
	for _, fn := range before {
		fn()
	}

	h.mu.Lock()
	var next *scene.Camera
	if len(h.path) > 0 {
		next = &h.path[0]
		h.path = h.path[1:]
	}
	h.mu.Unlock()

	if next != nil {
		h.apply(*next)
	}
}

func (h *Host) apply(cam scene.Camera) {
	h.mu.Lock()
	h.camera = cam
	h.mu.Unlock()

	h.sc.Camera.FOV = cam.FOV
	h.sc.Camera.Pose.Pos = cam.Position
	up := cam.Up
	if up == (math32.Vector3{}) {
		up = math32.Vec3(0, 1, 0)
	}
	h.sc.Camera.LookAt(cam.Target, up)
	h.sc.SetNeedsRender()
	h.widget.NeedsRender()
}
