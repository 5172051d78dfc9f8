package viewer_test

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"cogentcore.org/core/math32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ifcview/pkg/bbox"
	"github.com/askiada/go-ifcview/pkg/geom"
	"github.com/askiada/go-ifcview/pkg/scene"
	"github.com/askiada/go-ifcview/pkg/viewer"
)

const waitTimeout = 5 * time.Second

// recorder keeps every log record.
type recorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func (r *recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *recorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec.Clone())

	return nil
}

func (r *recorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *recorder) WithGroup(string) slog.Handler      { return r }

func (r *recorder) count(level slog.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Level == level {
			n++
		}
	}

	return n
}

// boxLoader understands "box x0 y0 z0 x1 y1 z1" and "empty". Anything else
// fails. A non nil gate blocks every load until it receives.
type boxLoader struct {
	gate chan struct{}
}

func (l *boxLoader) Load(ctx context.Context, data []byte) (*geom.Model, error) {
	if l.gate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-l.gate:
		}
	}
	text := string(data)
	if text == "empty" {
		return geom.NewModel("empty"), nil
	}
	var lo, hi math32.Vector3
	_, err := fmt.Sscanf(text, "box %g %g %g %g %g %g", &lo.X, &lo.Y, &lo.Z, &hi.X, &hi.Y, &hi.Z)
	if err != nil {
		return nil, errors.Wrap(err, "not a box")
	}
	m := geom.NewModel(strings.TrimSpace(text))
	m.Meshes = []*geom.Mesh{bbox.NewVolume(math32.Box3{Min: lo, Max: hi}).Mesh()}

	return m, nil
}

// recordingHost remembers the order of scene changes and can refuse adds.
type recordingHost struct {
	*scene.Graph

	mu     sync.Mutex
	events []string
	refuse func(m *geom.Model) bool
}

func newHost() *recordingHost {
	return &recordingHost{Graph: scene.NewGraph(scene.DefaultCamera())}
}

func (h *recordingHost) Add(m *geom.Model) error {
	h.mu.Lock()
	refuse := h.refuse
	h.mu.Unlock()
	if refuse != nil && refuse(m) {
		return errors.New("scene refused model")
	}
	err := h.Graph.Add(m)
	if err == nil {
		h.record("add " + m.ID.String())
	}

	return err
}

func (h *recordingHost) Remove(m *geom.Model) error {
	err := h.Graph.Remove(m)
	if err == nil {
		h.record("remove " + m.ID.String())
	}

	return err
}

func (h *recordingHost) record(event string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recordingHost) Events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.events...)
}

type fixture struct {
	host   *recordingHost
	loader *boxLoader
	logs   *recorder
	pipe   *viewer.Pipeline
}

func newFixture(t *testing.T, opts ...viewer.Option) *fixture {
	t.Helper()

	f := &fixture{
		host:   newHost(),
		loader: &boxLoader{},
		logs:   &recorder{},
	}
	opts = append([]viewer.Option{viewer.WithLogger(slog.New(f.logs))}, opts...)
	pipe, err := viewer.NewPipeline(context.Background(), f.host, f.loader, opts...)
	require.NoError(t, err)
	f.pipe = pipe
	t.Cleanup(func() {
		_ = pipe.Close()
	})

	return f
}

func wait(t *testing.T, task *viewer.Task) (viewer.Result, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	res, err := task.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "load did not complete")

	return res, err
}

// memSource is an in-memory Source.
type memSource struct {
	name string
	data string
}

func (s memSource) Name() string { return s.name }

func (s memSource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return []byte(s.data), nil
}

func box(name string, lo, hi float32) memSource {
	return memSource{name: name, data: fmt.Sprintf("box %g %g %g %g %g %g", lo, lo, lo, hi, hi, hi)}
}
