package pipeline

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-matte/filter"
	"github.com/khaledhikmat/vs-matte/frame"
	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/service/background"
	"github.com/khaledhikmat/vs-matte/service/config"
	"github.com/khaledhikmat/vs-matte/service/inference"
)

var green = color.RGBA{G: 255, A: 255}

type testConfig struct {
	config.IService
	policy string
	params map[string]config.SinkParameters
}

func (c testConfig) GetFailurePolicy() string {
	return c.policy
}

func (c testConfig) GetSinkParameters(name string) config.SinkParameters {
	if p, ok := c.params[name]; ok {
		return p
	}
	return c.IService.GetSinkParameters(name)
}

type memoryStorage struct {
	mu     sync.Mutex
	frames []*frame.View
	fail   bool
}

func (s *memoryStorage) StoreFrame(v *frame.View) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return "", errors.New("disk full")
	}
	s.frames = append(s.frames, v.Clone())
	return "memory", nil
}

func (s *memoryStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func newTestServices(policy string) ServicesFactory {
	return ServicesFactory{
		CfgSvc:        testConfig{IService: config.NewHardCoded(), policy: policy},
		StorageSvc:    &memoryStorage{},
		BackgroundSvc: background.NewScaled(green),
		Board:         NewStatsBoard(),
	}
}

func newTestMatte(t *testing.T, run inference.RunFunc) (*filter.Guarded, *inference.FakeService) {
	t.Helper()

	profile, err := filter.LookupProfile(filter.DefaultProfileName)
	require.NoError(t, err)

	engine := inference.NewFake(run)
	m, err := filter.NewMattingWithEngine(engine, profile)
	require.NoError(t, err)
	return filter.NewGuarded(m), engine
}

func failing(call int, inputs []inference.Tensor) ([]inference.Tensor, error) {
	return nil, errors.New("device lost")
}

func gradient(w, h int) *frame.View {
	v := frame.New(w, h, 3)
	for i := range v.Pix {
		v.Pix[i] = byte((i * 7) % 251)
	}
	return v
}

func isSolid(v *frame.View, px ...byte) bool {
	for y := 0; y < v.Height; y++ {
		row := v.Row(y)
		for x := 0; x < len(row); x += 3 {
			if row[x] != px[0] || row[x+1] != px[1] || row[x+2] != px[2] {
				return false
			}
		}
	}
	return true
}

type matterRun struct {
	in       chan FrameData
	done     <-chan struct{}
	out      chan FrameData
	errors   chan interface{}
	stats    chan interface{}
	haltErr  error
	haltOnce sync.Once
}

func startMatter(t *testing.T, svcs ServicesFactory, matte *filter.Guarded) *matterRun {
	t.Helper()

	r := &matterRun{
		out:    make(chan FrameData, 16),
		errors: make(chan interface{}, 16),
		stats:  make(chan interface{}, 16),
	}
	halt := func(cause error) {
		r.haltOnce.Do(func() { r.haltErr = cause })
	}

	r.in, r.done = Matter(context.Background(), svcs, matte, model.Source{Name: "test"}, halt, r.errors, r.stats, []chan FrameData{r.out})
	return r
}

// finish closes the input and collects everything the matter forwarded.
func (r *matterRun) finish(t *testing.T) ([]FrameData, model.MatterStats) {
	t.Helper()

	close(r.in)
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("matter did not stop")
	}

	var frames []FrameData
	for f := range r.out {
		frames = append(frames, f)
	}

	stats := (<-r.stats).(model.MatterStats)
	return frames, stats
}
