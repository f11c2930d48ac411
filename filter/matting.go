package filter

import (
	"fmt"

	"github.com/khaledhikmat/vs-matte/frame"
	"github.com/khaledhikmat/vs-matte/service/inference"
)

const (
	matteInputs  = 6
	matteOutputs = 6
)

// MattingConfig selects the model file, the backend that runs it and the
// normalisation profile. Zero overrides keep the profile values.
type MattingConfig struct {
	ModelPath   string
	Backend     string
	LibraryPath string
	Threads     int
	Profile     string

	Scale           float32
	DownsampleRatio float32
	SwapRB          *bool
}

// ResolveProfile looks up the named profile and applies the overrides.
func (cfg MattingConfig) ResolveProfile() (Profile, error) {
	p, err := LookupProfile(cfg.Profile)
	if err != nil {
		return Profile{}, err
	}

	if cfg.Scale != 0 {
		p.Scale = cfg.Scale
	}
	if cfg.DownsampleRatio != 0 {
		p.DownsampleRatio = cfg.DownsampleRatio
	}
	if cfg.SwapRB != nil {
		p.SwapRB = *cfg.SwapRB
	}

	return p, p.validate()
}

// Matting replaces the background with a recurrent video matting network. Each
// call feeds the recurrent tensors produced by the previous successful call back
// into the network.
type Matting struct {
	engine   inference.IService
	profile  Profile
	ratio    inference.Tensor
	state    [4]inference.Tensor
	observer Observer

	fgr    []float32
	staged *frame.View
}

// NewMatting loads the model at cfg.ModelPath. It fails when the backend cannot
// load or initialise the model.
func NewMatting(cfg MattingConfig, opts ...Option) (*Matting, error) {
	profile, err := cfg.ResolveProfile()
	if err != nil {
		return nil, validationErrorf("new", "%v", err)
	}

	engine, err := inference.New(inference.Config{
		Backend:     cfg.Backend,
		ModelPath:   cfg.ModelPath,
		LibraryPath: cfg.LibraryPath,
		Threads:     cfg.Threads,
		InputNames:  profile.InputNames,
		OutputNames: profile.OutputNames,
	})
	if err != nil {
		return nil, backendError("new", err)
	}

	return NewMattingWithEngine(engine, profile, opts...)
}

// NewMattingWithEngine wraps an already loaded engine. The filter owns the engine
// and closes it on Close.
func NewMattingWithEngine(engine inference.IService, profile Profile, opts ...Option) (*Matting, error) {
	if engine == nil {
		return nil, backendError("new", fmt.Errorf("no inference engine"))
	}

	if err := profile.validate(); err != nil {
		return nil, validationErrorf("new", "%v", err)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Matting{
		engine:   engine,
		profile:  profile,
		ratio:    inference.Tensor{Shape: []int64{1}, Data: []float32{profile.DownsampleRatio}},
		observer: o.observer,
	}
	m.Reset()
	return m, nil
}

// Reset returns the recurrent state to the initial all-zero tensors.
func (m *Matting) Reset() {
	for i := range m.state {
		m.state[i] = inference.NewTensor(1, 1, 1, 1)
	}
}

func (m *Matting) Profile() Profile {
	return m.profile
}

// FilterInPlace runs one matting step. Nothing is written to src and the
// recurrent state is kept unless every step succeeds.
func (m *Matting) FilterInPlace(src *frame.View, bg *frame.View) error {
	if err := validatePair(src, bg); err != nil {
		return err
	}

	w, h := src.Width, src.Height
	img := toBlob(src, m.profile.Scale, m.profile.SwapRB)

	// The recurrent tensors are handed over by reference; engines must not modify them
	inputs := []inference.Tensor{img, m.state[0], m.state[1], m.state[2], m.state[3], m.ratio}

	outputs, err := m.engine.Run(inputs)
	if err != nil {
		return backendError("infer", err)
	}

	if len(outputs) != matteOutputs {
		return logicErrorf("infer", "expected %d output tensors, got %d", matteOutputs, len(outputs))
	}

	fgr, err := fromBlob(outputs[0], w, h, m.profile.Scale, m.profile.SwapRB, m.fgr)
	if err != nil {
		return backendError("postprocess", err)
	}
	m.fgr = fgr

	pha, err := matteFromBlob(outputs[1], w, h)
	if err != nil {
		return backendError("postprocess", err)
	}

	for i, r := range outputs[2:] {
		if len(r.Data) == 0 || len(r.Data) != inference.Elements(r.Shape) {
			return backendError("postprocess", fmt.Errorf("recurrent output %d has shape %v and %d values", i+1, r.Shape, len(r.Data)))
		}
	}

	staged := m.stage(w, h)
	blend(staged.Pix, fgr, bg, pha.Alpha)

	src.CopyFrom(staged)
	copy(m.state[:], outputs[2:])

	if m.observer != nil {
		m.observer(src)
	}

	return nil
}

func (m *Matting) Filter(src *frame.View, bg *frame.View) (*frame.View, error) {
	return Copy(m, src, bg)
}

func (m *Matting) Close() error {
	return m.engine.Close()
}

func (m *Matting) stage(w, h int) *frame.View {
	if m.staged == nil || m.staged.Width != w || m.staged.Height != h {
		m.staged = frame.New(w, h, 3)
	}
	return m.staged
}
