package inference

import (
	"fmt"
	"os"
)

const (
	BackendOnnxRuntime = "onnxruntime"
	BackendOpenCV      = "opencv"
	BackendFake        = "fake"
)

// Tensor is a dense row-major float32 array.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NewTensor allocates a zeroed tensor of the given shape.
func NewTensor(shape ...int64) Tensor {
	return Tensor{
		Shape: shape,
		Data:  make([]float32, Elements(shape)),
	}
}

// Elements returns the number of values a tensor of the given shape holds.
func Elements(shape []int64) int {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return int(n)
}

func (t Tensor) String() string {
	return fmt.Sprintf("tensor%v", t.Shape)
}

// Config describes how to load a model into a backend.
type Config struct {
	Backend     string
	ModelPath   string
	LibraryPath string // onnxruntime shared library, empty means the platform default
	Threads     int
	InputNames  []string
	OutputNames []string
}

// IService runs one synchronous forward pass. Inputs and outputs are positional and
// their count and shapes are a contract with the loaded model. Implementations must
// not modify the input tensors and must not retain them after Run returns.
type IService interface {
	Run(inputs []Tensor) ([]Tensor, error)
	Close() error
}

// New loads cfg.ModelPath into the configured backend.
func New(cfg Config) (IService, error) {
	switch cfg.Backend {
	case BackendOnnxRuntime, "":
		return NewOnnxRuntime(cfg)
	case BackendOpenCV:
		return NewOpenCV(cfg)
	case BackendFake:
		// dry runs: every pixel is foreground, no model file needed
		return NewFake(EchoMatting(1)), nil
	default:
		return nil, fmt.Errorf("unknown inference backend %q", cfg.Backend)
	}
}

func checkModel(path string) error {
	if path == "" {
		return fmt.Errorf("no model path configured")
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("model %s is not readable: %w", path, err)
	}

	if info.IsDir() {
		return fmt.Errorf("model %s is a directory", path)
	}

	return nil
}
