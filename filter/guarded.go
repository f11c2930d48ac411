package filter

import (
	"sync"

	"github.com/khaledhikmat/vs-matte/frame"
)

type resetter interface {
	Reset()
}

// Guarded owns a filter and the background it composites onto. Every operation
// holds one lock for its whole duration, so a background swap can never overlap
// a running call.
type Guarded struct {
	mu     sync.Mutex
	filter Filter
	bg     *frame.View
}

func NewGuarded(f Filter) *Guarded {
	return &Guarded{filter: f}
}

// Process filters src in place against the current background.
func (g *Guarded) Process(src *frame.View) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.bg == nil {
		return validationErrorf("process", "no background frame set")
	}

	return g.filter.FilterInPlace(src, g.bg)
}

// SetBackground installs bg as the background for the following calls. The
// caller gives up bg and must not modify it afterwards. When the dimensions
// change the recurrent state of the filter is reset. A nil bg clears the
// background and the state.
func (g *Guarded) SetBackground(bg *frame.View) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if bg == nil {
		if g.bg != nil {
			g.reset()
		}
		g.bg = nil
		return
	}

	if g.bg != nil && (g.bg.Width != bg.Width || g.bg.Height != bg.Height) {
		g.reset()
	}
	g.bg = bg
}

// BackgroundSize returns the dimensions of the current background, zero when unset.
func (g *Guarded) BackgroundSize() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.bg == nil {
		return 0, 0
	}
	return g.bg.Width, g.bg.Height
}

// Reset clears the recurrent state of filters that carry one.
func (g *Guarded) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.reset()
}

// Name returns the kind of the wrapped filter.
func (g *Guarded) Name() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return describe(g.filter)
}

func (g *Guarded) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.filter.Close()
}

func (g *Guarded) reset() {
	if r, ok := g.filter.(resetter); ok {
		r.Reset()
	}
}
