package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-ifcview/pkg/pipeline/model"
)

func runStepMerger[I any](ctx context.Context, pipe *Pipeline, errC chan<- error, step, outputStep *model.Step[I]) {
	for {
		startIter := time.Now()
		select {
		case <-ctx.Done():
			errC <- ctx.Err()

			return
		case entry, ok := <-step.Output:
			if !ok {
				return
			}

			select {
			case <-ctx.Done():
				errC <- ctx.Err()

				return
			case outputStep.Output <- entry:
				endIter := time.Since(startIter)
				for _, opt := range pipe.opts {
					err := opt.OnMergerOutput(step.Details, outputStep.Details, endIter)
					if err != nil {
						errC <- errors.Wrap(err, "unable to run merger output function")

						return
					}
				}
			}
		}
	}
}

// AddMerger adds a merger step to the pipeline. It forwards the output of all
// the steps into a single channel, which is closed once every input is.
// Elements keep their order per input but not across inputs.
func AddMerger[I any](pipe *Pipeline, name string, steps ...*model.Step[I]) (*model.Step[I], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if len(steps) == 0 {
		return nil, ErrMergerInputs
	}

	outputStep := newStep[I](model.StepInfo{Type: model.MergerStepType, Name: name})

	stepInfos := make([]*model.StepInfo, len(steps))
	for i, step := range steps {
		if step == nil {
			return nil, ErrInputMustBeSet
		}
		stepInfos[i] = step.Details
	}

	for _, opt := range pipe.opts {
		err := opt.PrepareMerger(stepInfos, outputStep.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before merger function")
		}
	}

	// one slot per input: each forwarder reports at most one error
	errC := make(chan error, len(steps))
	wgrp := sync.WaitGroup{}
	wgrp.Add(len(steps))

	go func() {
		wgrp.Wait()
		close(errC)
		close(outputStep.Output)
	}()

	for _, step := range steps {
		step := step
		go func() {
			defer wgrp.Done()
			runStepMerger(pipe.ctx, pipe, errC, step, outputStep)
		}()
	}

	pipe.errcList.add(newErrorChan(name, errC))

	return outputStep, nil
}
