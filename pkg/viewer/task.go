package viewer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-ifcview/pkg/geom"
)

// Task is a load request travelling through the pipeline. Failures travel
// with the task so that one bad file never stops the pipeline.
type Task struct {
	ID     uuid.UUID
	Source Source

	ctx     context.Context //nolint:containedctx // the request context follows the task across stages.
	created time.Time
	status  atomic.Int32
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex
	result Result
	err    error

	// owned by the stage holding the task
	data  []byte
	model *geom.Model
}

func newTask(ctx context.Context, src Source) *Task {
	return &Task{
		ID:      uuid.New(),
		Source:  src,
		ctx:     ctx,
		created: time.Now(),
		done:    make(chan struct{}),
	}
}

// Status returns the current state of the request.
func (t *Task) Status() Status {
	return Status(t.status.Load())
}

// Done is closed once the request is Ready or Failed.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the request completes or ctx is done.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, errors.Wrap(ctx.Err(), "wait for load")
	case <-t.done:
		return t.outcome()
	}
}

func (t *Task) outcome() (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.result, t.err
}

// enter moves the task to stage unless it already failed.
func (t *Task) enter(stage Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return false
	}
	if err := t.ctx.Err(); err != nil {
		t.failLocked(stage, err)

		return false
	}
	t.status.Store(int32(stage))

	return true
}

// fail records the failure of stage. The first failure wins.
func (t *Task) fail(stage Status, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failLocked(stage, err)
}

func (t *Task) failLocked(stage Status, err error) {
	if t.err != nil || t.Status().Terminal() {
		return
	}
	t.err = &LoadError{Stage: stage, Err: err}
	t.status.Store(int32(StatusFailed))
}

func (t *Task) succeed(res Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.result = res
	}
}

// complete closes Done. It reports false when the task was already complete.
func (t *Task) complete() bool {
	completed := false
	t.once.Do(func() {
		t.mu.Lock()
		if t.err == nil {
			t.status.Store(int32(StatusReady))
		}
		t.mu.Unlock()
		close(t.done)
		completed = true
	})

	return completed
}
