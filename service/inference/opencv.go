package inference

import (
	"fmt"
	"unsafe"

	"gocv.io/x/gocv"
)

type openCVService struct {
	net         gocv.Net
	inputNames  []string
	outputNames []string
}

// NewOpenCV loads the model into the OpenCV DNN module on the CPU target.
func NewOpenCV(cfg Config) (IService, error) {
	if err := checkModel(cfg.ModelPath); err != nil {
		return nil, err
	}

	if len(cfg.InputNames) == 0 || len(cfg.OutputNames) == 0 {
		return nil, fmt.Errorf("opencv needs input and output names")
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("error reading model %s", cfg.ModelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting backend: %w", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting target: %w", err)
	}

	return &openCVService{
		net:         net,
		inputNames:  cfg.InputNames,
		outputNames: cfg.OutputNames,
	}, nil
}

func (svc *openCVService) Run(inputs []Tensor) ([]Tensor, error) {
	if len(inputs) != len(svc.inputNames) {
		return nil, fmt.Errorf("expected %d inputs, got %d", len(svc.inputNames), len(inputs))
	}

	blobs := make([]gocv.Mat, 0, len(inputs))
	defer func() {
		for _, b := range blobs {
			b.Close()
		}
	}()

	for i, in := range inputs {
		blob, err := tensorToMat(in)
		if err != nil {
			return nil, fmt.Errorf("error converting input %d %v: %w", i, in.Shape, err)
		}
		blobs = append(blobs, blob)
		svc.net.SetInput(blob, svc.inputNames[i])
	}

	outs := svc.net.ForwardLayers(svc.outputNames)
	defer func() {
		for _, o := range outs {
			o.Close()
		}
	}()

	results := make([]Tensor, 0, len(outs))
	for i, o := range outs {
		t, err := matToTensor(o)
		if err != nil {
			return nil, fmt.Errorf("error converting output %d: %w", i, err)
		}
		results = append(results, t)
	}

	return results, nil
}

func (svc *openCVService) Close() error {
	return svc.net.Close()
}

func tensorToMat(t Tensor) (gocv.Mat, error) {
	if len(t.Data) == 0 {
		return gocv.NewMat(), fmt.Errorf("empty tensor")
	}

	sizes := make([]int, len(t.Shape))
	for i, d := range t.Shape {
		sizes[i] = int(d)
	}

	raw := unsafe.Slice((*byte)(unsafe.Pointer(&t.Data[0])), len(t.Data)*4)
	return gocv.NewMatWithSizesFromBytes(sizes, gocv.MatTypeCV32F, raw)
}

func matToTensor(m gocv.Mat) (Tensor, error) {
	if m.Empty() {
		return Tensor{}, fmt.Errorf("empty output blob")
	}

	data, err := m.DataPtrFloat32()
	if err != nil {
		return Tensor{}, err
	}

	dims := m.Size()
	shape := make([]int64, len(dims))
	for i, d := range dims {
		shape[i] = int64(d)
	}

	return Tensor{
		Shape: shape,
		Data:  append([]float32(nil), data...),
	}, nil
}
