package viewer_test

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"testing"
	"testing/fstest"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ifcview/pkg/geom"
	"github.com/askiada/go-ifcview/pkg/ifc"
	"github.com/askiada/go-ifcview/pkg/pipeline/drawer"
	"github.com/askiada/go-ifcview/pkg/pipeline/measure"
	"github.com/askiada/go-ifcview/pkg/viewer"
)

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", viewer.StatusIdle.String())
	assert.Equal(t, "attaching", viewer.StatusAttaching.String())
	assert.Equal(t, "failed", viewer.StatusFailed.String())
	assert.Equal(t, "unknown", viewer.Status(42).String())
	assert.True(t, viewer.StatusReady.Terminal())
	assert.False(t, viewer.StatusParsing.Terminal())
}

func TestLoadAttachesModel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	task := f.pipe.Load(context.Background(), box("a.ifc", 0, 2))
	res, err := wait(t, task)
	require.NoError(t, err)

	assert.Equal(t, viewer.StatusReady, task.Status())
	require.NotNil(t, res.Model)
	assert.Equal(t, viewer.DefaultModelName, res.Model.Name())
	assert.Equal(t, []*geom.Model{res.Model}, f.host.Models())
	assert.Equal(t, math32.Vec3(1, 1, 1), res.Volume.Center)

	current, ok := f.pipe.State().Current()
	require.True(t, ok)
	assert.Same(t, res.Model, current.Model)
	assert.Equal(t, res.Volume, current.Volume)
	assert.Equal(t, 1, f.logs.count(slog.LevelInfo))
	assert.Zero(t, f.logs.count(slog.LevelError))
}

func TestSuccessiveLoadsKeepOneModel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tasks := make([]*viewer.Task, 0, 6)
	for i := 0; i < 6; i++ {
		tasks = append(tasks, f.pipe.Load(context.Background(), box("box.ifc", float32(i), float32(i+1))))
	}

	models := make([]*geom.Model, 0, len(tasks))
	for _, task := range tasks {
		res, err := wait(t, task)
		require.NoError(t, err)
		models = append(models, res.Model)
	}

	last := models[len(models)-1]
	assert.Equal(t, []*geom.Model{last}, f.host.Models())

	current, ok := f.pipe.State().Current()
	require.True(t, ok)
	assert.Same(t, last, current.Model)
	assert.Equal(t, math32.Vec3(5.5, 5.5, 5.5), current.Volume.Center)

	// attached in submission order, each replacing the previous one
	want := []string{"add " + models[0].ID.String()}
	for i := 1; i < len(models); i++ {
		want = append(want, "remove "+models[i-1].ID.String(), "add "+models[i].ID.String())
	}
	assert.Equal(t, want, f.host.Events())
}

func TestParseFailureKeepsPreviousModel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first, err := wait(t, f.pipe.Load(context.Background(), box("a.ifc", 0, 1)))
	require.NoError(t, err)

	for _, src := range []memSource{
		{name: "garbage.ifc", data: "not a model"},
		{name: "empty.ifc", data: "empty"},
	} {
		task := f.pipe.Load(context.Background(), src)
		_, err = wait(t, task)
		require.ErrorIs(t, err, viewer.ErrParse, src.name)
		assert.NotErrorIs(t, err, viewer.ErrRead)
		assert.Equal(t, viewer.StatusFailed, task.Status())

		var loadErr *viewer.LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, viewer.StatusParsing, loadErr.Stage)
	}

	assert.Equal(t, []*geom.Model{first.Model}, f.host.Models())
	current, ok := f.pipe.State().Current()
	require.True(t, ok)
	assert.Same(t, first.Model, current.Model)
	assert.Equal(t, first.Volume, current.Volume)
	assert.Equal(t, 2, f.logs.count(slog.LevelError))
}

func TestReadFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	fsys := fstest.MapFS{}
	task := f.pipe.Load(context.Background(), viewer.FSSource{FS: fsys, Path: "missing.ifc"})
	_, err := wait(t, task)
	require.ErrorIs(t, err, viewer.ErrRead)
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Empty(t, f.host.Models())

	_, ok := f.pipe.State().Current()
	assert.False(t, ok)
}

func TestAttachFailureRestoresPrevious(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first, err := wait(t, f.pipe.Load(context.Background(), box("a.ifc", 0, 1)))
	require.NoError(t, err)

	f.host.mu.Lock()
	f.host.refuse = func(m *geom.Model) bool { return m != first.Model }
	f.host.mu.Unlock()

	_, err = wait(t, f.pipe.Load(context.Background(), box("b.ifc", 3, 4)))
	require.ErrorIs(t, err, viewer.ErrAttach)

	assert.Equal(t, []*geom.Model{first.Model}, f.host.Models())
	current, ok := f.pipe.State().Current()
	require.True(t, ok)
	assert.Same(t, first.Model, current.Model)
}

func TestCancelledWhileQueued(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.loader.gate = make(chan struct{})

	first := f.pipe.Load(context.Background(), box("a.ifc", 0, 1))
	ctx, cancel := context.WithCancel(context.Background())
	second := f.pipe.Load(ctx, box("b.ifc", 0, 2))
	cancel()
	close(f.loader.gate)

	_, err := wait(t, first)
	require.NoError(t, err)
	_, err = wait(t, second)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, viewer.StatusFailed, second.Status())
	assert.Len(t, f.host.Models(), 1)
}

func TestWaitHonoursContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.loader.gate = make(chan struct{})
	defer close(f.loader.gate)

	task := f.pipe.Load(context.Background(), box("a.ifc", 0, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := task.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	select {
	case <-task.Done():
		t.Fatal("task completed while its loader was blocked")
	default:
	}
}

func TestCloseDrainsQueue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.loader.gate = make(chan struct{})

	tasks := []*viewer.Task{
		f.pipe.Load(context.Background(), box("a.ifc", 0, 1)),
		f.pipe.Load(context.Background(), box("b.ifc", 0, 2)),
		f.pipe.Load(context.Background(), box("c.ifc", 0, 3)),
	}

	closed := make(chan error, 1)
	go func() {
		closed <- f.pipe.Close()
	}()
	close(f.loader.gate)

	for _, task := range tasks {
		_, err := wait(t, task)
		require.NoError(t, err)
	}
	require.NoError(t, <-closed)

	_, err := wait(t, f.pipe.Load(context.Background(), box("d.ifc", 0, 1)))
	require.ErrorIs(t, err, viewer.ErrClosed)
	_, err = wait(t, f.pipe.Reload(box("d.ifc", 0, 1)))
	require.ErrorIs(t, err, viewer.ErrClosed)
	require.ErrorIs(t, f.pipe.Close(), viewer.ErrClosed)
}

func TestParentContextStopsPipeline(t *testing.T) {
	t.Parallel()

	loader := &boxLoader{gate: make(chan struct{})}
	t.Cleanup(func() { close(loader.gate) })
	ctx, cancel := context.WithCancel(context.Background())
	pipe, err := viewer.NewPipeline(ctx, newHost(), loader, viewer.WithLogger(slog.New(&recorder{})))
	require.NoError(t, err)

	task := pipe.Load(context.Background(), box("a.ifc", 0, 1))
	cancel()

	_, err = wait(t, task)
	require.Error(t, err)
	require.ErrorIs(t, pipe.Close(), context.Canceled)
}

func TestReload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res, err := wait(t, f.pipe.Reload(box("a.ifc", 0, 4)))
	require.NoError(t, err)
	assert.Equal(t, []*geom.Model{res.Model}, f.host.Models())
	assert.Equal(t, math32.Vec3(2, 2, 2), res.Volume.Center)
}

func TestNewPipelineNeedsHostAndLoader(t *testing.T) {
	t.Parallel()

	_, err := viewer.NewPipeline(context.Background(), nil, &boxLoader{})
	require.Error(t, err)
	_, err = viewer.NewPipeline(context.Background(), newHost(), nil)
	require.Error(t, err)
}

func TestLoadIFCWithDrawing(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile("../ifc/testdata/house.ifc")
	require.NoError(t, err)

	loader := ifc.NewLoader()
	require.NoError(t, loader.Setup(context.Background(), ifc.DefaultSettings()))

	m := measure.NewDefaultMeasure()
	var drawing bytes.Buffer
	host := newHost()
	pipe, err := viewer.NewPipeline(context.Background(), host, loader,
		viewer.WithLogger(slog.New(&recorder{})),
		viewer.WithPipelineOptions(
			measure.PipelineMeasure(m),
			drawer.PipelineDrawer(drawer.NewDOTDrawer(), m, &drawing),
		),
	)
	require.NoError(t, err)

	fsys := fstest.MapFS{"house.ifc": {Data: data}}
	res, err := wait(t, pipe.Load(context.Background(), viewer.FSSource{FS: fsys, Path: "house.ifc"}))
	require.NoError(t, err)
	require.NoError(t, pipe.Close())

	assert.Equal(t, map[string]int{"IFCWALL": 1, "IFCSLAB": 1}, res.Model.Categories())
	for _, mesh := range res.Model.Meshes {
		assert.False(t, loader.Excluded(mesh.Category), mesh.Category)
	}

	dot := drawing.String()
	for _, edge := range []string{
		`"start" -> "requests"`,
		`"start" -> "reloads"`,
		`"requests" -> "merge"`,
		`"reloads" -> "merge"`,
		`"merge" -> "read"`,
		`"read" -> "parse"`,
		`"parse" -> "attach"`,
		`"attach" -> "end"`,
	} {
		assert.Contains(t, dot, edge)
	}
	assert.NotNil(t, m.GetMetric(viewer.StageParse))
}
