// Package overlay samples frame timings from the render loop: frames per
// second, milliseconds per frame and heap size.
package overlay

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/askiada/go-ifcview/pkg/pipeline/measure"
	"github.com/askiada/go-ifcview/pkg/scene"
)

// Panel selects what Text shows.
type Panel int

const (
	PanelFPS Panel = iota
	PanelMS
	PanelMB
)

// DefaultPanel shows the heap size.
const DefaultPanel = PanelMB

var ErrAttached = errors.New("overlay already attached")

// bounds tracks the smallest and largest value seen.
type bounds struct {
	min, max float64
	set      bool
}

func (b *bounds) add(v float64) {
	if !b.set {
		b.min, b.max, b.set = v, v, true

		return
	}
	b.min = math.Min(b.min, v)
	b.max = math.Max(b.max, v)
}

// Stats is the performance overlay. Begin and End bracket every frame.
type Stats struct {
	mu    sync.Mutex
	panel Panel
	now   func() time.Time
	heap  func() uint64

	// window holds the frame durations of the current second
	window      *measure.DefaultMetric
	windowStart time.Time
	begin       time.Time
	attached    bool

	fps   float64
	frame time.Duration
	mem   uint64

	fpsBounds, msBounds, memBounds bounds
}

// Option configures Stats.
type Option func(*Stats)

// WithPanel selects the visible panel.
func WithPanel(p Panel) Option {
	return func(s *Stats) {
		s.panel = p
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Stats) {
		s.now = now
	}
}

// WithHeap replaces the heap size source.
func WithHeap(heap func() uint64) Option {
	return func(s *Stats) {
		s.heap = heap
	}
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return ms.HeapAlloc
}

func New(opts ...Option) *Stats {
	s := &Stats{
		panel:  DefaultPanel,
		now:    time.Now,
		heap:   heapAlloc,
		window: measure.NewDefaultMetric(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.windowStart = s.now()

	return s
}

// Attach subscribes Begin and End to the render hooks of host. It can only
// be done once.
func (s *Stats) Attach(host scene.Host) error {
	s.mu.Lock()
	if s.attached {
		s.mu.Unlock()

		return ErrAttached
	}
	s.attached = true
	s.mu.Unlock()

	host.OnBeforeRender(s.Begin)
	host.OnAfterRender(s.End)

	return nil
}

// ShowPanel selects the visible panel.
func (s *Stats) ShowPanel(p Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panel = p
}

// Begin marks the start of a frame.
func (s *Stats) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin = s.now()
}

// End marks the end of the frame started by Begin. Once a second it
// publishes the frame rate and the heap size.
func (s *Stats) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.begin.IsZero() {
		return
	}
	now := s.now()
	s.frame = now.Sub(s.begin)
	s.begin = time.Time{}
	s.window.AddDuration(s.frame)
	s.msBounds.add(float64(s.frame.Milliseconds()))

	elapsed := now.Sub(s.windowStart)
	if elapsed < time.Second {
		return
	}
	s.fps = float64(s.window.Count()) / elapsed.Seconds()
	s.fpsBounds.add(math.Round(s.fps))
	s.mem = s.heap()
	s.memBounds.add(float64(s.mem))
	s.window.Reset()
	s.windowStart = now
}

// FPS is the frame rate of the last full second.
func (s *Stats) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fps
}

// Frame is the duration of the last frame.
func (s *Stats) Frame() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.frame
}

// AverageFrame is the mean frame duration of the current second.
func (s *Stats) AverageFrame() time.Duration {
	return s.window.AVGDuration()
}

// Heap is the heap size sampled with the last frame rate.
func (s *Stats) Heap() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mem
}

// Text renders the visible panel with its range, e.g. "60 FPS (58-61)".
func (s *Stats) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.panel {
	case PanelFPS:
		return fmt.Sprintf("%.0f FPS (%.0f-%.0f)", s.fps, s.fpsBounds.min, s.fpsBounds.max)
	case PanelMS:
		return fmt.Sprintf("%d MS (%.0f-%.0f)", s.frame.Milliseconds(), s.msBounds.min, s.msBounds.max)
	default:
		return fmt.Sprintf("%s (%s-%s)", humanize.Bytes(s.mem),
			humanize.Bytes(uint64(s.memBounds.min)), humanize.Bytes(uint64(s.memBounds.max)))
	}
}
