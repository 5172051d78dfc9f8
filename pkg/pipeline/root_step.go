package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-ifcview/pkg/pipeline/model"
)

func newStep[O any](info model.StepInfo, opts ...StepOption[O]) *model.Step[O] {
	details := info
	step := &model.Step[O]{Details: &details}
	for _, opt := range opts {
		opt(step)
	}
	if step.Details.Concurrent <= 0 {
		step.Details.Concurrent = 1
	}
	step.Output = make(chan O, step.Details.BufferSize)

	return step
}

// AddRootStep adds a step without input. stepFn pushes elements to rootChan
// and the output is closed once it returns.
func AddRootStep[O any](pipe *Pipeline, name string, stepFn func(ctx context.Context, rootChan chan<- O) error, opts ...StepOption[O]) (*model.Step[O], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}

	step := newStep(model.StepInfo{Type: model.RootStepType, Name: name}, opts...)
	for _, opt := range pipe.opts {
		err := opt.PrepareStep(model.StartStep.Details, step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before step function")
		}
	}

	errC := make(chan error, 1)
	go func() {
		defer func() {
			close(step.Output)
			close(errC)
		}()
		err := stepFn(pipe.ctx, step.Output)
		if err != nil {
			errC <- err
		}
	}()
	pipe.errcList.add(newErrorChan(name, errC))

	return step, nil
}
