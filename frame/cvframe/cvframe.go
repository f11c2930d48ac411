// Package cvframe moves pixels between OpenCV matrices (BGR) and frame views (RGB).
package cvframe

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/vs-matte/frame"
)

// FromMat copies a BGR 8-bit matrix into a new packed RGB view.
func FromMat(mat gocv.Mat) (*frame.View, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty matrix")
	}

	if mat.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("unsupported matrix type %v, want 8UC3", mat.Type())
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB)

	return frame.NewView(rgb.ToBytes(), rgb.Cols(), rgb.Rows(), 3, rgb.Cols()*3)
}

// ToMat copies an RGB view into a new BGR matrix. The caller closes it.
func ToMat(v *frame.View) (gocv.Mat, error) {
	if v.Channels != 3 {
		return gocv.NewMat(), fmt.Errorf("unsupported channel count %d, want 3", v.Channels)
	}

	rgb, err := gocv.NewMatFromBytes(v.Height, v.Width, gocv.MatTypeCV8UC3, v.Bytes())
	if err != nil {
		return gocv.NewMat(), err
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}
