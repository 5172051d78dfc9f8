// Package viewer loads model files into a scene one request at a time and
// exposes the actions of the control panel.
package viewer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-ifcview/pkg/bbox"
	"github.com/askiada/go-ifcview/pkg/geom"
	"github.com/askiada/go-ifcview/pkg/pipeline"
	"github.com/askiada/go-ifcview/pkg/pipeline/model"
	"github.com/askiada/go-ifcview/pkg/scene"
)

// Stage names, as they appear in pipeline drawings and measures.
const (
	StageRequests = "requests"
	StageReloads  = "reloads"
	StageMerge    = "merge"
	StageRead     = "read"
	StageParse    = "parse"
	StageAttach   = "attach"
)

// DefaultModelName names every attached model node.
const DefaultModelName = "IFC model"

// Loader turns file content into a model.
type Loader interface {
	Load(ctx context.Context, data []byte) (*geom.Model, error)
}

// Pipeline serializes load requests: every request is read, parsed and
// attached in submission order, one attach at a time. The scene never holds
// more than one model attached by the pipeline.
type Pipeline struct {
	host      scene.Host
	loader    Loader
	calc      *bbox.Calculator
	state     *State
	logger    *slog.Logger
	modelName string
	queueSize int
	pipeOpts  []model.PipelineOption

	ctx      context.Context //nolint:containedctx // reloads run under the pipeline context.
	cancel   context.CancelFunc
	requests chan *Task
	stop     chan struct{}
	runErr   chan error

	mu     sync.RWMutex
	closed bool

	reloadMu sync.Mutex
	reload   *Task
	reloadC  chan struct{}

	inflightMu sync.Mutex
	inflight   map[uuid.UUID]*Task
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger of load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithQueueSize sets how many requests can wait before Load blocks.
func WithQueueSize(size int) Option {
	return func(p *Pipeline) {
		p.queueSize = size
	}
}

// WithModelName sets the name given to attached models.
func WithModelName(name string) Option {
	return func(p *Pipeline) {
		p.modelName = name
	}
}

// WithPipelineOptions hooks measures or drawers into the stage engine.
func WithPipelineOptions(opts ...model.PipelineOption) Option {
	return func(p *Pipeline) {
		p.pipeOpts = append(p.pipeOpts, opts...)
	}
}

// NewPipeline wires the stages and starts them. They run until Close or
// until ctx is done.
func NewPipeline(ctx context.Context, host scene.Host, loader Loader, opts ...Option) (*Pipeline, error) {
	if host == nil || loader == nil {
		return nil, errors.New("host and loader must be set")
	}
	p := &Pipeline{
		host:      host,
		loader:    loader,
		calc:      bbox.NewCalculator(),
		state:     &State{},
		logger:    slog.Default(),
		modelName: DefaultModelName,
		queueSize: 8,
		stop:      make(chan struct{}),
		runErr:    make(chan error, 1),
		reloadC:   make(chan struct{}, 1),
		inflight:  make(map[uuid.UUID]*Task),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.queueSize < 0 {
		p.queueSize = 0
	}
	p.requests = make(chan *Task, p.queueSize)
	p.ctx, p.cancel = context.WithCancel(ctx)

	pipe, err := pipeline.New(p.ctx, p.pipeOpts...)
	if err != nil {
		p.cancel()

		return nil, errors.Wrap(err, "unable to create pipeline")
	}
	err = p.wire(pipe)
	if err != nil {
		p.cancel()

		return nil, err
	}

	go func() {
		err := pipe.Run()
		p.abandon()
		p.runErr <- err
		close(p.runErr)
	}()

	return p, nil
}

func (p *Pipeline) wire(pipe *pipeline.Pipeline) error {
	requests, err := pipeline.AddRootStep(pipe, StageRequests, p.feedRequests)
	if err != nil {
		return errors.Wrap(err, "unable to add requests step")
	}
	reloads, err := pipeline.AddRootStep(pipe, StageReloads, p.feedReloads)
	if err != nil {
		return errors.Wrap(err, "unable to add reloads step")
	}
	merged, err := pipeline.AddMerger(pipe, StageMerge, requests, reloads)
	if err != nil {
		return errors.Wrap(err, "unable to add merger")
	}
	read, err := pipeline.AddStepOneToOne(pipe, StageRead, merged, p.read)
	if err != nil {
		return errors.Wrap(err, "unable to add read step")
	}
	parse, err := pipeline.AddStepOneToOne(pipe, StageParse, read, p.parse)
	if err != nil {
		return errors.Wrap(err, "unable to add parse step")
	}
	err = pipeline.AddSink(pipe, StageAttach, parse, p.attach)
	if err != nil {
		return errors.Wrap(err, "unable to add attach sink")
	}

	return nil
}

// State returns the current model and volume holder.
func (p *Pipeline) State() *State {
	return p.state
}

// Load queues src. ctx governs the request: once it is done the request
// fails at the next stage boundary.
func (p *Pipeline) Load(ctx context.Context, src Source) *Task {
	t := newTask(ctx, src)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.finishEarly(t, ErrClosed)

		return t
	}

	p.track(t)
	select {
	case p.requests <- t:
	case <-ctx.Done():
		p.untrack(t)
		p.finishEarly(t, ctx.Err())
	case <-p.ctx.Done():
		p.untrack(t)
		p.finishEarly(t, ErrClosed)
	}

	return t
}

// Reload queues src on the reload input. Reloads coalesce: while one is
// waiting, reloading the same file returns the waiting task and reloading
// another one supersedes it. Files are told apart by full path, not name.
func (p *Pipeline) Reload(src Source) *Task {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		t := newTask(p.ctx, src)
		p.finishEarly(t, ErrClosed)

		return t
	}

	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()
	if pending := p.reload; pending != nil {
		if sourceKey(pending.Source) == sourceKey(src) {
			return pending
		}
		p.untrack(pending)
		p.finishEarly(pending, ErrSuperseded)
	}
	t := newTask(p.ctx, src)
	p.track(t)
	p.reload = t
	select {
	case p.reloadC <- struct{}{}:
	default:
	}

	return t
}

// Close stops accepting requests, lets queued ones finish and waits for the
// stages to stop.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()

		return ErrClosed
	}
	p.closed = true
	close(p.requests)
	close(p.stop)
	p.mu.Unlock()

	err := <-p.runErr
	p.cancel()

	return err
}

func (p *Pipeline) feedRequests(ctx context.Context, out chan<- *Task) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-p.requests:
			if !ok {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- t:
			}
		}
	}
}

func (p *Pipeline) feedReloads(ctx context.Context, out chan<- *Task) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stop:
			// a reload queued before Close still runs
			if t := p.takeReload(); t != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case out <- t:
				}
			}

			return nil
		case <-p.reloadC:
			t := p.takeReload()
			if t == nil {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- t:
			}
		}
	}
}

func (p *Pipeline) takeReload() *Task {
	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()
	t := p.reload
	p.reload = nil

	return t
}

func (p *Pipeline) read(_ context.Context, t *Task) (*Task, error) {
	if !t.enter(StatusReading) {
		return t, nil
	}
	data, err := t.Source.Read(t.ctx)
	if err != nil {
		t.fail(StatusReading, err)

		return t, nil
	}
	t.data = data

	return t, nil
}

func (p *Pipeline) parse(_ context.Context, t *Task) (*Task, error) {
	data := t.data
	t.data = nil
	if !t.enter(StatusParsing) {
		return t, nil
	}
	m, err := p.loader.Load(t.ctx, data)
	switch {
	case err != nil:
		t.fail(StatusParsing, err)
	case m.Empty():
		t.fail(StatusParsing, errors.New("empty model"))
	default:
		t.model = m
	}

	return t, nil
}

// attach replaces the current model: name, remove the old one, add the new
// one, recompute the volume, publish both.
func (p *Pipeline) attach(_ context.Context, t *Task) error {
	defer p.untrack(t)
	m := t.model
	t.model = nil
	if !t.enter(StatusAttaching) {
		p.report(t)

		return nil
	}

	m.SetName(p.modelName)
	prev, loaded := p.state.Current()
	if loaded {
		err := p.host.Remove(prev.Model)
		if err != nil {
			t.fail(StatusAttaching, errors.Wrap(err, "remove previous model"))
			p.report(t)

			return nil
		}
	}
	err := p.host.Add(m)
	if err != nil {
		t.fail(StatusAttaching, errors.Wrap(err, "add model"))
		if loaded {
			if rerr := p.host.Add(prev.Model); rerr != nil {
				p.logger.Error("unable to restore previous model", slog.Any("error", rerr))
			}
		}
		p.report(t)

		return nil
	}

	p.calc.Reset()
	p.calc.Add(m)
	vol, _ := p.calc.Volume()
	res := Result{Model: m, Volume: vol}
	p.state.set(res)
	t.succeed(res)
	p.report(t)

	return nil
}

// report completes t and logs its outcome.
func (p *Pipeline) report(t *Task) {
	if !t.complete() {
		return
	}
	res, err := t.outcome()
	attrs := []any{
		slog.String("request", t.ID.String()),
		slog.String("source", t.Source.Name()),
		slog.Duration("elapsed", time.Since(t.created)),
	}
	if err != nil {
		p.logger.Error("model load failed", append(attrs, slog.Any("error", err))...)

		return
	}
	p.logger.Info("model loaded", append(attrs,
		slog.Int("meshes", len(res.Model.Meshes)),
		slog.Int("triangles", res.Model.Triangles()),
		slog.Float64("radius", float64(res.Volume.Radius)),
	)...)
}

func (p *Pipeline) finishEarly(t *Task, err error) {
	t.fail(StatusIdle, err)
	p.report(t)
}

func (p *Pipeline) track(t *Task) {
	p.inflightMu.Lock()
	defer p.inflightMu.Unlock()
	p.inflight[t.ID] = t
}

func (p *Pipeline) untrack(t *Task) {
	p.inflightMu.Lock()
	defer p.inflightMu.Unlock()
	delete(p.inflight, t.ID)
}

// abandon fails the requests the stages dropped when they stopped early.
func (p *Pipeline) abandon() {
	p.inflightMu.Lock()
	left := make([]*Task, 0, len(p.inflight))
	for id, t := range p.inflight {
		left = append(left, t)
		delete(p.inflight, id)
	}
	p.inflightMu.Unlock()

	for _, t := range left {
		p.finishEarly(t, ErrClosed)
	}
}
