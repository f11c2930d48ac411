package inference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTensor(t *testing.T) {
	tensor := NewTensor(1, 3, 4, 5)
	assert.Len(t, tensor.Data, 60)
	assert.Equal(t, 1, Elements([]int64{1, 1, 1, 1}))
	assert.Equal(t, "tensor[1 3 4 5]", tensor.String())
}

func TestNewRejectsMissingModel(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.onnx")

	for _, backend := range []string{BackendOnnxRuntime, BackendOpenCV} {
		t.Run(backend, func(t *testing.T) {
			svc, err := New(Config{
				Backend:     backend,
				ModelPath:   missing,
				InputNames:  []string{"src"},
				OutputNames: []string{"fgr"},
			})
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "tensorrt", ModelPath: "model.onnx"})
	assert.ErrorContains(t, err, "unknown inference backend")
}

func TestCheckModelRejectsDirectory(t *testing.T) {
	assert.ErrorContains(t, checkModel(t.TempDir()), "is a directory")
	assert.ErrorContains(t, checkModel(""), "no model path")
}

func TestFakeServiceRecordsCopies(t *testing.T) {
	svc := NewFake(EchoMatting(0.5))

	img := NewTensor(1, 3, 2, 2)
	img.Data[0] = 0.25
	inputs := []Tensor{img, NewTensor(1, 1, 1, 1), NewTensor(1, 1, 1, 1), NewTensor(1, 1, 1, 1), NewTensor(1, 1, 1, 1), {Shape: []int64{1}, Data: []float32{0.25}}}

	outputs, err := svc.Run(inputs)
	require.NoError(t, err)
	require.Len(t, outputs, 6)
	assert.Equal(t, []int64{1, 1, 2, 2}, outputs[1].Shape)
	assert.Equal(t, float32(1), outputs[2].Data[0])

	img.Data[0] = 0.75
	calls := svc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, float32(0.25), calls[0][0].Data[0])

	require.NoError(t, svc.Close())
	assert.True(t, svc.Closed())
	_, err = svc.Run(inputs)
	assert.Error(t, err)
}

func TestNewFakeBackendNeedsNoModel(t *testing.T) {
	svc, err := New(Config{Backend: BackendFake})
	require.NoError(t, err)
	defer svc.Close()

	inputs := []Tensor{
		NewTensor(1, 3, 2, 2),
		NewTensor(1, 1, 1, 1),
		NewTensor(1, 1, 1, 1),
		NewTensor(1, 1, 1, 1),
		NewTensor(1, 1, 1, 1),
		{Shape: []int64{1}, Data: []float32{0.25}},
	}
	outputs, err := svc.Run(inputs)
	require.NoError(t, err)
	require.Len(t, outputs, 6)
	assert.Equal(t, []float32{1, 1, 1, 1}, outputs[1].Data)
}
