package filter

import (
	"fmt"

	"github.com/khaledhikmat/vs-matte/frame"
	"github.com/khaledhikmat/vs-matte/service/inference"
)

// channelOrder maps a frame channel to its model channel.
func channelOrder(swapRB bool) [3]int {
	if swapRB {
		return [3]int{2, 1, 0}
	}
	return [3]int{0, 1, 2}
}

// toBlob converts a 3-channel HWC frame into a [1,3,H,W] tensor scaled by scale.
func toBlob(v *frame.View, scale float32, swapRB bool) inference.Tensor {
	w, h := v.Width, v.Height
	plane := w * h
	order := channelOrder(swapRB)

	t := inference.NewTensor(1, 3, int64(h), int64(w))
	for y := 0; y < h; y++ {
		row := v.Row(y)
		for x := 0; x < w; x++ {
			p := y*w + x
			px := row[x*3 : x*3+3]
			t.Data[order[0]*plane+p] = float32(px[0]) * scale
			t.Data[order[1]*plane+p] = float32(px[1]) * scale
			t.Data[order[2]*plane+p] = float32(px[2]) * scale
		}
	}
	return t
}

// fromBlob converts a [1,3,H,W] tensor back into packed HWC values in 8-bit
// intensity units, undoing the scale and channel swap of toBlob. dst is reused
// when large enough.
func fromBlob(t inference.Tensor, w, h int, scale float32, swapRB bool, dst []float32) ([]float32, error) {
	if err := checkShape(t, 1, 3, h, w); err != nil {
		return nil, fmt.Errorf("foreground: %w", err)
	}

	plane := w * h
	if cap(dst) < plane*3 {
		dst = make([]float32, plane*3)
	}
	dst = dst[:plane*3]

	order := channelOrder(swapRB)
	inv := 1 / scale
	for p := 0; p < plane; p++ {
		dst[p*3] = t.Data[order[0]*plane+p] * inv
		dst[p*3+1] = t.Data[order[1]*plane+p] * inv
		dst[p*3+2] = t.Data[order[2]*plane+p] * inv
	}
	return dst, nil
}

// matteFromBlob views a [1,1,H,W] tensor as a matte without copying.
func matteFromBlob(t inference.Tensor, w, h int) (*Matte, error) {
	if err := checkShape(t, 1, 1, h, w); err != nil {
		return nil, fmt.Errorf("alpha: %w", err)
	}

	return &Matte{Width: w, Height: h, Alpha: t.Data}, nil
}

func checkShape(t inference.Tensor, dims ...int) error {
	if len(t.Shape) != len(dims) {
		return fmt.Errorf("expected shape %v, got %v", dims, t.Shape)
	}

	for i, d := range dims {
		if t.Shape[i] != int64(d) {
			return fmt.Errorf("expected shape %v, got %v", dims, t.Shape)
		}
	}

	if len(t.Data) != inference.Elements(t.Shape) {
		return fmt.Errorf("shape %v needs %d values, got %d", t.Shape, inference.Elements(t.Shape), len(t.Data))
	}

	return nil
}
