package pipeline

import "github.com/askiada/go-ifcview/pkg/pipeline/model"

// StepOption configures a step before its output channel is created.
type StepOption[O any] func(s *model.Step[O])

// StepConcurrency sets how many goroutines run the step function. Values
// above one do not preserve the input order.
func StepConcurrency[O any](concurrent int) StepOption[O] {
	return func(s *model.Step[O]) {
		s.Details.Concurrent = concurrent
	}
}

// StepBufferSize sets the capacity of the step output channel.
func StepBufferSize[O any](bufferSize int) StepOption[O] {
	return func(s *model.Step[O]) {
		s.Details.BufferSize = bufferSize
	}
}
