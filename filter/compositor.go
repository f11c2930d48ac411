package filter

import (
	"math"

	"github.com/khaledhikmat/vs-matte/frame"
)

// Matte is a single-channel alpha mask, 1 for foreground and 0 for background.
type Matte struct {
	Width  int
	Height int
	Alpha  []float32
}

func NewMatte(width, height int) *Matte {
	return &Matte{
		Width:  width,
		Height: height,
		Alpha:  make([]float32, width*height),
	}
}

// ApplyMask blends fg over bg: fg*mask + bg*(1-mask) for every channel. The mask
// is broadcast over the channels. Mask values outside [0,1] are clamped and NaN
// counts as background.
func ApplyMask(fg *frame.View, bg *frame.View, mask *Matte) (*frame.View, error) {
	if fg == nil || bg == nil || mask == nil {
		return nil, validationErrorf("apply_mask", "foreground, background and mask are required")
	}

	if err := fg.Validate(); err != nil {
		return nil, validationErrorf("apply_mask", "foreground frame: %v", err)
	}

	if err := bg.Validate(); err != nil {
		return nil, validationErrorf("apply_mask", "background frame: %v", err)
	}

	if !fg.SameShape(bg) {
		return nil, validationErrorf("apply_mask", "foreground is %s but background is %s", fg, bg)
	}

	if mask.Width != fg.Width || mask.Height != fg.Height || len(mask.Alpha) != fg.Width*fg.Height {
		return nil, validationErrorf("apply_mask", "mask is %dx%d with %d values, frames are %dx%d",
			mask.Width, mask.Height, len(mask.Alpha), fg.Width, fg.Height)
	}

	fgPix := make([]float32, 0, fg.Width*fg.Height*fg.Channels)
	for y := 0; y < fg.Height; y++ {
		for _, b := range fg.Row(y) {
			fgPix = append(fgPix, float32(b))
		}
	}

	dst := frame.New(fg.Width, fg.Height, fg.Channels)
	blend(dst.Pix, fgPix, bg, mask.Alpha)
	return dst, nil
}

// blend writes fg*a + bg*(1-a) into the packed dst. fg is packed HWC in 8-bit
// intensity units, alpha holds one value per pixel.
func blend(dst []byte, fg []float32, bg *frame.View, alpha []float32) {
	c := bg.Channels
	i := 0
	for y := 0; y < bg.Height; y++ {
		row := bg.Row(y)
		for x := 0; x < bg.Width; x++ {
			a := clamp01(alpha[y*bg.Width+x])
			for k := 0; k < c; k++ {
				dst[i] = quantize(fg[i]*a + float32(row[x*c+k])*(1-a))
				i++
			}
		}
	}
}

func clamp01(v float32) float32 {
	if math.IsNaN(float64(v)) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func quantize(v float32) byte {
	if math.IsNaN(float64(v)) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v + 0.5)
}
