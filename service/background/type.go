package background

import (
	"image"
	"image/color"
	"io"

	"github.com/khaledhikmat/vs-matte/frame"
)

// IService owns the replacement background. It serves it as an RGB frame of
// whatever size the video currently has.
type IService interface {
	// Frame returns the background scaled to width x height. The returned view
	// is shared and must not be modified.
	Frame(width, height int) (*frame.View, error)
	Replace(img image.Image)
	ReplaceReader(r io.Reader) error
	ReplaceFile(path string) error
	ReplaceColor(c color.RGBA)
	// Version changes every time the background is replaced.
	Version() uint64
}
