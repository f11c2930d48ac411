package filter

import "github.com/khaledhikmat/vs-matte/frame"

// Noop leaves frames untouched. It keeps the pipeline running when no matting
// backend is configured or available.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) FilterInPlace(_ *frame.View, _ *frame.View) error {
	return nil
}

func (n *Noop) Filter(src *frame.View, bg *frame.View) (*frame.View, error) {
	return Copy(n, src, bg)
}

func (n *Noop) Close() error {
	return nil
}
