package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

type onnxRuntimeService struct {
	session *ort.DynamicAdvancedSession
	outputs int
}

// NewOnnxRuntime opens an ONNX Runtime session on the model. The runtime environment
// is process-wide and initialised on first use.
func NewOnnxRuntime(cfg Config) (IService, error) {
	if err := checkModel(cfg.ModelPath); err != nil {
		return nil, err
	}

	if len(cfg.InputNames) == 0 || len(cfg.OutputNames) == 0 {
		return nil, fmt.Errorf("onnxruntime needs input and output names")
	}

	ortInitOnce.Do(func() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("error initializing onnxruntime: %w", ortInitErr)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	if cfg.Threads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.Threads); err != nil {
			return nil, fmt.Errorf("error setting intra-op threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, cfg.InputNames, cfg.OutputNames, options)
	if err != nil {
		return nil, fmt.Errorf("error loading model %s: %w", cfg.ModelPath, err)
	}

	return &onnxRuntimeService{
		session: session,
		outputs: len(cfg.OutputNames),
	}, nil
}

func (svc *onnxRuntimeService) Run(inputs []Tensor) ([]Tensor, error) {
	values := make([]ort.Value, 0, len(inputs))
	defer func() {
		for _, v := range values {
			v.Destroy()
		}
	}()

	for i, in := range inputs {
		// The tensor wraps the Go slice without copying it
		t, err := ort.NewTensor(ort.NewShape(in.Shape...), in.Data)
		if err != nil {
			return nil, fmt.Errorf("error wrapping input %d %v: %w", i, in.Shape, err)
		}
		values = append(values, t)
	}

	// nil outputs are allocated by onnxruntime
	outputs := make([]ort.Value, svc.outputs)
	defer func() {
		for _, v := range outputs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	if err := svc.session.Run(values, outputs); err != nil {
		return nil, fmt.Errorf("error running session: %w", err)
	}

	results := make([]Tensor, 0, len(outputs))
	for i, v := range outputs {
		t, ok := v.(*ort.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("output %d is not a float32 tensor", i)
		}

		// Output memory belongs to onnxruntime and is released on Destroy
		results = append(results, Tensor{
			Shape: append([]int64(nil), t.GetShape()...),
			Data:  append([]float32(nil), t.GetData()...),
		})
	}

	return results, nil
}

func (svc *onnxRuntimeService) Close() error {
	return svc.session.Destroy()
}
