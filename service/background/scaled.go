package background

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // decoders for ReplaceReader
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/khaledhikmat/vs-matte/frame"
	"github.com/khaledhikmat/vs-matte/service/lgr"
)

type scaledService struct {
	mu      sync.Mutex
	img     image.Image
	fill    color.RGBA
	version uint64
	cached  *frame.View
	cacheV  uint64
}

// NewScaled starts with a solid color background.
func NewScaled(fill color.RGBA) IService {
	return &scaledService{
		fill:    fill,
		version: 1,
	}
}

func (svc *scaledService) Frame(width, height int) (*frame.View, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid background size %dx%d", width, height)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.cached != nil && svc.cacheV == svc.version && svc.cached.Width == width && svc.cached.Height == height {
		return svc.cached, nil
	}

	var v *frame.View
	if svc.img == nil {
		v = frame.New(width, height, 3)
		v.Fill(svc.fill.R, svc.fill.G, svc.fill.B)
	} else {
		v = toView(cover(svc.img, width, height))
	}

	svc.cached = v
	svc.cacheV = svc.version

	lgr.Logger.Debug("background rendered",
		slog.String("size", v.String()),
		slog.Uint64("version", svc.version),
	)
	return v, nil
}

func (svc *scaledService) Replace(img image.Image) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.img = img
	svc.version++
}

func (svc *scaledService) ReplaceReader(r io.Reader) error {
	img, format, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("decoding background image: %w", err)
	}

	lgr.Logger.Info("background replaced",
		slog.String("format", format),
		slog.Int("width", img.Bounds().Dx()),
		slog.Int("height", img.Bounds().Dy()),
	)
	svc.Replace(img)
	return nil
}

func (svc *scaledService) ReplaceFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return svc.ReplaceReader(f)
}

func (svc *scaledService) ReplaceColor(c color.RGBA) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.img = nil
	svc.fill = c
	svc.version++
}

func (svc *scaledService) Version() uint64 {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.version
}

// cover scales img so it fills width x height and crops the overflow around the center.
func cover(img image.Image, width, height int) *image.RGBA {
	b := img.Bounds()
	sx := float64(width) / float64(b.Dx())
	sy := float64(height) / float64(b.Dy())
	scale := max(sx, sy)

	w := max(width, int(float64(b.Dx())*scale+0.5))
	h := max(height, int(float64(b.Dy())*scale+0.5))

	scaled := img
	if w != b.Dx() || h != b.Dy() {
		scaled = resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
	}

	sb := scaled.Bounds()
	offset := image.Pt(sb.Min.X+(sb.Dx()-width)/2, sb.Min.Y+(sb.Dy()-height)/2)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), scaled, offset, draw.Src)
	return dst
}

func toView(img *image.RGBA) *frame.View {
	b := img.Bounds()
	v := frame.New(b.Dx(), b.Dy(), 3)
	for y := 0; y < v.Height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+4*v.Width]
		dst := v.Row(y)
		for x := 0; x < v.Width; x++ {
			dst[3*x] = src[4*x]
			dst[3*x+1] = src[4*x+1]
			dst[3*x+2] = src[4*x+2]
		}
	}
	return v
}
