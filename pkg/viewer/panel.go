package viewer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-ifcview/pkg/scene"
)

// Button labels of the control panel.
const (
	LabelOpenFile = "Load IFC file"
	LabelFitView  = "Fit BIM model"
)

// Picker shows a file dialog restricted to the accepted extensions and calls
// onSelect with the chosen path. A cancelled dialog never calls it.
type Picker interface {
	Pick(accept []string, onSelect func(path string))
}

// Action is one button of the control panel.
type Action struct {
	Label string
	Run   func()
}

// Panel holds the two user actions: open a file and fit the view.
type Panel struct {
	ctx    context.Context //nolint:containedctx // requests started from buttons live as long as the panel.
	intake *Intake
	pipe   *Pipeline
	host   scene.Host
	picker Picker
	logger *slog.Logger

	mu     sync.Mutex
	onLoad []func(path string, task *Task)
}

// NewPanel returns the control panel of pipe. Requests started from it use
// ctx.
func NewPanel(ctx context.Context, pipe *Pipeline, intake *Intake, picker Picker, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}

	return &Panel{
		ctx:    ctx,
		intake: intake,
		pipe:   pipe,
		host:   pipe.host,
		picker: picker,
		logger: logger,
	}
}

// OpenFile shows the picker. A selection is checked right away and queued
// on the pipeline from another goroutine: pickers call back on the GUI
// thread, which a full queue must not block.
func (p *Panel) OpenFile() {
	p.picker.Pick(p.intake.Accept(), func(path string) {
		src, err := p.open(path)
		if err != nil {
			return
		}
		go p.queue(path, src)
	})
}

// LoadPath validates path and queues it. It blocks while the queue is full,
// so GUI handlers use OpenFile instead.
func (p *Panel) LoadPath(path string) (*Task, error) {
	src, err := p.open(path)
	if err != nil {
		return nil, err
	}

	return p.queue(path, src), nil
}

func (p *Panel) open(path string) (Source, error) {
	src, err := p.intake.Open(path)
	if err != nil {
		p.logger.Warn("file rejected", slog.String("path", path), slog.Any("error", err))

		return nil, err
	}

	return src, nil
}

func (p *Panel) queue(path string, src Source) *Task {
	task := p.pipe.Load(p.ctx, src)

	p.mu.Lock()
	hooks := append([]func(string, *Task){}, p.onLoad...)
	p.mu.Unlock()
	for _, fn := range hooks {
		fn(path, task)
	}

	return task
}

// OnLoad registers fn to run with every accepted path and its task, once
// it is queued.
func (p *Panel) OnLoad(fn func(path string, task *Task)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onLoad = append(p.onLoad, fn)
}

// FitView frames the current bounding volume. Without a model it logs a
// warning and leaves the camera alone.
func (p *Panel) FitView(animate bool) error {
	res, ok := p.pipe.State().Current()
	if !ok {
		p.logger.Warn("no model loaded, cannot fit view")

		return ErrNoModel
	}
	err := p.host.FitToVolume(res.Volume, animate)
	if err != nil {
		return errors.Wrap(err, "fit view")
	}

	return nil
}

// Actions returns the buttons in display order.
func (p *Panel) Actions() []Action {
	return []Action{
		{Label: LabelOpenFile, Run: p.OpenFile},
		{Label: LabelFitView, Run: func() {
			err := p.FitView(true)
			if err != nil && !errors.Is(err, ErrNoModel) {
				p.logger.Error("fit view failed", slog.Any("error", err))
			}
		}},
	}
}
