package filter

import (
	"testing"

	"github.com/khaledhikmat/vs-matte/frame"
	"github.com/khaledhikmat/vs-matte/service/inference"
	"github.com/stretchr/testify/require"
)

func testProfile() Profile {
	p, err := LookupProfile(DefaultProfileName)
	if err != nil {
		panic(err)
	}
	return p
}

// gradient returns a frame whose pixels differ per position and channel.
func gradient(w, h int) *frame.View {
	v := frame.New(w, h, 3)
	for i := range v.Pix {
		v.Pix[i] = byte((i * 7) % 251)
	}
	return v
}

func solid(w, h int, px ...byte) *frame.View {
	v := frame.New(w, h, 3)
	v.Fill(px...)
	return v
}

func newFakeMatting(t *testing.T, run inference.RunFunc, opts ...Option) (*Matting, *inference.FakeService) {
	t.Helper()

	engine := inference.NewFake(run)
	m, err := NewMattingWithEngine(engine, testProfile(), opts...)
	require.NoError(t, err)
	return m, engine
}

// truncated drops the last outputs of run.
func truncated(run inference.RunFunc, keep int) inference.RunFunc {
	return func(call int, inputs []inference.Tensor) ([]inference.Tensor, error) {
		out, err := run(call, inputs)
		if err != nil {
			return nil, err
		}
		return out[:keep], nil
	}
}
