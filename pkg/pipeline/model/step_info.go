package model

type stepType string

const (
	RootStepType   stepType = "root"
	NormalStepType stepType = "step"
	MergerStepType stepType = "merger"
	SinkStepType   stepType = "sink"
)

// StepInfo describes a stage of a pipeline. Pipeline options receive it in
// their hooks to know which stage they are observing.
type StepInfo struct {
	Type       stepType
	Name       string
	Concurrent int
	BufferSize int
}

var (
	StartStep = &Step[any]{Details: &StepInfo{Name: "start"}}
	EndStep   = &Step[any]{Details: &StepInfo{Name: "end"}}
)

// Step is the output side of a stage: downstream stages read from Output.
type Step[O any] struct {
	Output  chan O
	Details *StepInfo
}
