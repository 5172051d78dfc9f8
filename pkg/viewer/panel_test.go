package viewer_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ifcview/pkg/scene"
	"github.com/askiada/go-ifcview/pkg/viewer"
)

// fakePicker selects path, or cancels the dialog when path is empty.
type fakePicker struct {
	path   string
	accept []string
}

func (p *fakePicker) Pick(accept []string, onSelect func(path string)) {
	p.accept = accept
	if p.path != "" {
		onSelect(p.path)
	}
}

func newPanel(t *testing.T, f *fixture, picker viewer.Picker) *viewer.Panel {
	t.Helper()

	return viewer.NewPanel(context.Background(), f.pipe, viewer.NewIntake(), picker, slog.New(f.logs))
}

func TestFitViewWithoutModel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	panel := newPanel(t, f, &fakePicker{})

	err := panel.FitView(true)
	require.ErrorIs(t, err, viewer.ErrNoModel)
	assert.Equal(t, 1, f.logs.count(slog.LevelWarn))
	assert.Equal(t, scene.DefaultCamera(), f.host.Camera())
	assert.Empty(t, f.host.CameraPath())
}

func TestFitViewFramesCurrentVolume(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	panel := newPanel(t, f, &fakePicker{})

	first, err := wait(t, f.pipe.Load(context.Background(), box("a.ifc", 0, 2)))
	require.NoError(t, err)
	require.NoError(t, panel.FitView(false))
	assert.Equal(t, first.Volume.Center, f.host.Camera().Target)

	second, err := wait(t, f.pipe.Load(context.Background(), box("b.ifc", 10, 20)))
	require.NoError(t, err)
	before := f.host.Camera()
	require.NoError(t, panel.FitView(true))

	cam := f.host.Camera()
	assert.Equal(t, second.Volume.Center, cam.Target)
	assert.Equal(t, scene.Frame(before, second.Volume), cam)
	assert.Len(t, f.host.CameraPath(), scene.AnimationSteps)
	assert.Zero(t, f.logs.count(slog.LevelWarn))
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tower.IFC")
	require.NoError(t, os.WriteFile(path, []byte("box 0 0 0 1 1 1"), 0o600))

	f := newFixture(t)
	picker := &fakePicker{path: path}
	panel := newPanel(t, f, picker)
	tasks := make(chan *viewer.Task, 1)
	panel.OnLoad(func(_ string, task *viewer.Task) { tasks <- task })

	panel.OpenFile()
	assert.Equal(t, []string{".ifc"}, picker.accept)

	select {
	case task := <-tasks:
		_, err := wait(t, task)
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("selection was not queued")
	}
	assert.Len(t, f.host.Models(), 1)
}

func TestOpenFileNeverBlocksOnFullQueue(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.ifc")
	require.NoError(t, os.WriteFile(path, []byte("box 0 0 0 1 1 1"), 0o600))

	f := newFixture(t, viewer.WithQueueSize(0))
	f.loader.gate = make(chan struct{})
	panel := newPanel(t, f, &fakePicker{path: path})

	const selections = 10
	tasks := make(chan *viewer.Task, selections)
	panel.OnLoad(func(_ string, task *viewer.Task) { tasks <- task })

	// stages and queue fill up after a few selections; the caller must not
	// wait for them
	returned := make(chan struct{})
	go func() {
		for i := 0; i < selections; i++ {
			panel.OpenFile()
		}
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(waitTimeout):
		t.Fatal("OpenFile blocked on a full queue")
	}

	close(f.loader.gate)
	for i := 0; i < selections; i++ {
		select {
		case task := <-tasks:
			_, err := wait(t, task)
			require.NoError(t, err)
		case <-time.After(waitTimeout):
			t.Fatal("selection was not queued")
		}
	}
	assert.Len(t, f.host.Models(), 1)
}

func TestOpenFileRejectsExtension(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	panel := newPanel(t, f, &fakePicker{path: "notes.txt"})

	panel.OpenFile()
	assert.Equal(t, 1, f.logs.count(slog.LevelWarn))

	_, err := panel.LoadPath("notes.txt")
	require.ErrorIs(t, err, viewer.ErrExtension)
	assert.Empty(t, f.host.Models())
}

func TestOpenFileCancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	newPanel(t, f, &fakePicker{}).OpenFile()
	assert.Zero(t, f.logs.count(slog.LevelWarn))
	assert.Empty(t, f.host.Models())
}

func TestActions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	actions := newPanel(t, f, &fakePicker{}).Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, "Load IFC file", actions[0].Label)
	assert.Equal(t, "Fit BIM model", actions[1].Label)

	actions[1].Run()
	assert.Equal(t, 1, f.logs.count(slog.LevelWarn))
	assert.Zero(t, f.logs.count(slog.LevelError))
}

func TestOnLoadSeesAcceptedPaths(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.ifc")
	require.NoError(t, os.WriteFile(path, []byte("box 0 0 0 1 1 1"), 0o600))

	f := newFixture(t)
	panel := newPanel(t, f, &fakePicker{})
	var seen []string
	panel.OnLoad(func(p string, task *viewer.Task) {
		assert.NotNil(t, task)
		seen = append(seen, p)
	})

	_, err := panel.LoadPath("notes.txt")
	require.Error(t, err)
	task, err := panel.LoadPath(path)
	require.NoError(t, err)
	_, err = wait(t, task)
	require.NoError(t, err)

	assert.Equal(t, []string{path}, seen)
}
