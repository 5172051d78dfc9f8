package viewer

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrRead reports a source that could not be read.
	ErrRead = errors.New("unable to read model source")
	// ErrParse reports content the loader rejected or that held no geometry.
	ErrParse = errors.New("unable to parse model")
	// ErrAttach reports a scene that refused the model.
	ErrAttach = errors.New("unable to attach model")
	// ErrNoModel is returned by actions that need a loaded model.
	ErrNoModel = errors.New("no model loaded")
	// ErrClosed is returned for requests made after Close.
	ErrClosed = errors.New("pipeline closed")
	// ErrExtension rejects files the intake does not accept.
	ErrExtension = errors.New("file extension not accepted")
	// ErrSuperseded fails a pending reload replaced by a reload of another
	// source.
	ErrSuperseded = errors.New("reload superseded")
)

// LoadError is the failure of a load request. It matches the sentinel of the
// stage that failed and unwraps to the cause.
type LoadError struct {
	Stage Status
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	switch e.Stage {
	case StatusReading:
		return target == ErrRead
	case StatusParsing:
		return target == ErrParse
	case StatusAttaching:
		return target == ErrAttach
	}

	return false
}
