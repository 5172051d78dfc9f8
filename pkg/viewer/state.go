package viewer

import (
	"sync"

	"github.com/askiada/go-ifcview/pkg/bbox"
	"github.com/askiada/go-ifcview/pkg/geom"
)

// Result is an attached model and the volume computed from it.
type Result struct {
	Model  *geom.Model
	Volume bbox.Volume
}

// State holds the current model and its bounding volume. They are replaced
// together: a reader never sees a volume of another model.
type State struct {
	mu      sync.RWMutex
	current Result
	loaded  bool
}

// Current returns the attached model and its volume, or false before the
// first successful load.
func (s *State) Current() (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current, s.loaded
}

func (s *State) set(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = res
	s.loaded = true
}
