package frame

import (
	"fmt"
)

// View describes an interleaved 8-bit pixel buffer. It does not own Pix: a view
// built with NewView aliases the caller's memory, so writes through the view land
// in the caller's buffer.
type View struct {
	Width    int
	Height   int
	Channels int
	// Stride is the number of bytes between the start of two consecutive rows.
	Stride int
	Pix    []byte
}

// NewView validates the descriptor against the backing slice and returns a view over it.
func NewView(pix []byte, width, height, channels, stride int) (*View, error) {
	v := &View{
		Width:    width,
		Height:   height,
		Channels: channels,
		Stride:   stride,
		Pix:      pix,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks that the descriptor fits its backing slice. Views assembled
// by hand bypass NewView, so consumers call this before touching Pix.
func (v *View) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions: width=%d, height=%d", v.Width, v.Height)
	}

	if v.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", v.Channels)
	}

	if v.Stride < v.Width*v.Channels {
		return fmt.Errorf("stride %d is smaller than a packed row (%d bytes)", v.Stride, v.Width*v.Channels)
	}

	need := v.Stride*(v.Height-1) + v.Width*v.Channels
	if len(v.Pix) < need {
		return fmt.Errorf("buffer holds %d bytes, a %dx%dx%d frame with stride %d needs %d", len(v.Pix), v.Width, v.Height, v.Channels, v.Stride, need)
	}

	return nil
}

// New allocates a zeroed, tightly packed frame. It panics on non-positive sizes.
func New(width, height, channels int) *View {
	if width <= 0 || height <= 0 || channels <= 0 {
		panic(fmt.Sprintf("frame: invalid size %dx%dx%d", width, height, channels))
	}

	return &View{
		Width:    width,
		Height:   height,
		Channels: channels,
		Stride:   width * channels,
		Pix:      make([]byte, width*height*channels),
	}
}

// RowBytes is the number of meaningful bytes in one row.
func (v *View) RowBytes() int {
	return v.Width * v.Channels
}

// Row returns the meaningful bytes of row y (stride padding excluded).
func (v *View) Row(y int) []byte {
	start := y * v.Stride
	return v.Pix[start : start+v.RowBytes()]
}

// Packed reports whether rows are contiguous.
func (v *View) Packed() bool {
	return v.Stride == v.RowBytes()
}

// Clone returns a tightly packed copy that owns its memory.
func (v *View) Clone() *View {
	dst := New(v.Width, v.Height, v.Channels)
	dst.CopyFrom(v)
	return dst
}

// CopyFrom copies the pixels of src into v row by row. Both views must share the same shape.
func (v *View) CopyFrom(src *View) {
	if v.Packed() && src.Packed() {
		copy(v.Pix[:v.Height*v.Stride], src.Pix)
		return
	}

	for y := 0; y < v.Height; y++ {
		copy(v.Row(y), src.Row(y))
	}
}

// Bytes returns the pixels as one packed slice. For packed views this is the backing slice itself.
func (v *View) Bytes() []byte {
	if v.Packed() {
		return v.Pix[:v.Height*v.Stride]
	}

	out := make([]byte, 0, v.Height*v.RowBytes())
	for y := 0; y < v.Height; y++ {
		out = append(out, v.Row(y)...)
	}
	return out
}

// SameShape reports whether both views have equal width, height and channel count.
func (v *View) SameShape(o *View) bool {
	return v.Width == o.Width && v.Height == o.Height && v.Channels == o.Channels
}

// Fill sets every pixel to the given channel values.
func (v *View) Fill(px ...byte) {
	if len(px) != v.Channels {
		return
	}

	for y := 0; y < v.Height; y++ {
		row := v.Row(y)
		for x := 0; x < len(row); x += v.Channels {
			copy(row[x:x+v.Channels], px)
		}
	}
}

func (v *View) String() string {
	return fmt.Sprintf("%dx%dx%d", v.Width, v.Height, v.Channels)
}
