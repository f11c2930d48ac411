package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/service/config"
	"github.com/khaledhikmat/vs-matte/service/inference"
)

// drain keeps the agent's report streams moving the way a mode processor does.
func drain(ctx context.Context, streams ...chan interface{}) {
	for _, s := range streams {
		go func(s chan interface{}) {
			for {
				select {
				case <-ctx.Done():
					return
				case <-s:
				}
			}
		}(s)
	}
}

func TestAgentRunsUntilCancelled(t *testing.T) {
	svcs := newTestServices(config.FailureSkip)
	svcs.CfgSvc = testConfig{
		IService: config.NewHardCoded(),
		params:   map[string]config.SinkParameters{config.SnapshotterName: {Every: 1}},
	}
	matte, _ := newTestMatte(t, inference.EchoMatting(0))

	drainCtx, stopDrain := context.WithCancel(context.Background())
	defer stopDrain()
	errs, stats := make(chan interface{}), make(chan interface{})
	drain(drainCtx, errs, stats)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	source := model.Source{Name: "synthetic", FramerType: RandomFramerType, Width: 8, Height: 8, FPS: 100}
	go func() {
		result <- Agent(ctx, svcs, matte, errs, stats, source, []string{config.SnapshotterName})
	}()

	store := svcs.StorageSvc.(*memoryStorage)
	require.Eventually(t, func() bool { return store.count() >= 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.True(t, isSolid(store.frames[0], 0, 255, 0))
}

func TestAgentReturnsHaltCause(t *testing.T) {
	svcs := newTestServices(config.FailureHalt)
	matte, _ := newTestMatte(t, failing)

	drainCtx, stopDrain := context.WithCancel(context.Background())
	defer stopDrain()
	errs, stats := make(chan interface{}), make(chan interface{})
	drain(drainCtx, errs, stats)

	source := model.Source{Name: "synthetic", FramerType: RandomFramerType, Width: 4, Height: 4, FPS: 100}
	err := Agent(context.Background(), svcs, matte, errs, stats, source, nil)
	assert.ErrorIs(t, err, ErrHalted)
}

func TestAgentRejectsUnknownSink(t *testing.T) {
	svcs := newTestServices(config.FailureSkip)
	matte, _ := newTestMatte(t, inference.EchoMatting(0))

	err := Agent(context.Background(), svcs, matte, nil, nil, model.Source{FramerType: RandomFramerType}, []string{"hologram"})
	assert.ErrorContains(t, err, "hologram")
}
