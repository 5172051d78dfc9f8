package ifc

import "github.com/pkg/errors"

var (
	// ErrSyntax is wrapped by every lexer and parser error.
	ErrSyntax = errors.New("ifc syntax error")
	// ErrNotIFC is returned when the content is not an ISO 10303-21 file.
	ErrNotIFC = errors.New("not an IFC file")
	// ErrEmptyModel is returned when a file yields no geometry.
	ErrEmptyModel = errors.New("model has no geometry")
	// ErrNotSetup is returned by Load before Setup.
	ErrNotSetup     = errors.New("loader is not set up")
	ErrAlreadySetup = errors.New("loader is already set up")
)
