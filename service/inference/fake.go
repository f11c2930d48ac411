package inference

import (
	"fmt"
	"sync"
)

// RunFunc computes the outputs of a fake forward pass.
type RunFunc func(call int, inputs []Tensor) ([]Tensor, error)

// FakeService records every call it receives and answers with RunFunc.
type FakeService struct {
	mu     sync.Mutex
	run    RunFunc
	calls  [][]Tensor
	closed bool
}

func NewFake(run RunFunc) *FakeService {
	return &FakeService{run: run}
}

func (svc *FakeService) Run(inputs []Tensor) ([]Tensor, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.closed {
		return nil, fmt.Errorf("fake inference service is closed")
	}

	recorded := make([]Tensor, len(inputs))
	for i, in := range inputs {
		recorded[i] = Tensor{
			Shape: append([]int64(nil), in.Shape...),
			Data:  append([]float32(nil), in.Data...),
		}
	}
	svc.calls = append(svc.calls, recorded)

	return svc.run(len(svc.calls)-1, inputs)
}

func (svc *FakeService) Close() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.closed = true
	return nil
}

// Calls returns the inputs of every Run call so far.
func (svc *FakeService) Calls() [][]Tensor {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return append([][]Tensor(nil), svc.calls...)
}

// Closed reports whether Close was called.
func (svc *FakeService) Closed() bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.closed
}

// EchoMatting answers like a matting model: the image is returned as foreground,
// the alpha matte is the constant alpha and every recurrent output carries the
// call number so consecutive calls can be told apart.
func EchoMatting(alpha float32) RunFunc {
	return func(call int, inputs []Tensor) ([]Tensor, error) {
		if len(inputs) != 6 {
			return nil, fmt.Errorf("expected 6 inputs, got %d", len(inputs))
		}

		img := inputs[0]
		if len(img.Shape) != 4 {
			return nil, fmt.Errorf("expected a 4-d image tensor, got %v", img.Shape)
		}

		fgr := Tensor{
			Shape: append([]int64(nil), img.Shape...),
			Data:  append([]float32(nil), img.Data...),
		}

		pha := NewTensor(1, 1, img.Shape[2], img.Shape[3])
		for i := range pha.Data {
			pha.Data[i] = alpha
		}

		outputs := []Tensor{fgr, pha}
		for r := 0; r < 4; r++ {
			rec := NewTensor(1, int64(r+1), 2, 2)
			for i := range rec.Data {
				rec.Data[i] = float32(call + 1)
			}
			outputs = append(outputs, rec)
		}

		return outputs, nil
	}
}
