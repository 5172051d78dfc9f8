// Package scene describes the 3D scene the viewer draws into and provides a
// headless implementation of it.
package scene

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-ifcview/pkg/bbox"
	"github.com/askiada/go-ifcview/pkg/geom"
)

var (
	ErrAlreadyAttached = errors.New("model already attached")
	ErrNotAttached     = errors.New("model not attached")
	ErrNilModel        = errors.New("model must be set")
)

// Host owns the scene graph, the camera and the render loop.
type Host interface {
	// Add attaches m to the scene graph.
	Add(m *geom.Model) error
	// Remove detaches m from the scene graph.
	Remove(m *geom.Model) error
	// FitToVolume moves the camera so that v fills the view.
	FitToVolume(v bbox.Volume, animate bool) error
	// OnBeforeRender registers fn to run before every render pass.
	OnBeforeRender(fn func())
	// OnAfterRender registers fn to run after every render pass.
	OnAfterRender(fn func())
}
