package filter

import (
	"sync"
	"testing"

	"github.com/khaledhikmat/vs-matte/service/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardedNeedsBackground(t *testing.T) {
	g := NewGuarded(NewNoop())

	err := g.Process(gradient(2, 2))
	assert.ErrorIs(t, err, ErrValidation)

	w, h := g.BackgroundSize()
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestGuardedResetsStateOnResize(t *testing.T) {
	m, engine := newFakeMatting(t, inference.EchoMatting(1))
	g := NewGuarded(m)
	assert.Equal(t, KindMatting, g.Name())

	g.SetBackground(solid(4, 4, 0, 255, 0))
	require.NoError(t, g.Process(gradient(4, 4)))

	// Same size keeps the recurrent state
	g.SetBackground(solid(4, 4, 0, 0, 255))
	require.NoError(t, g.Process(gradient(4, 4)))

	g.SetBackground(solid(6, 4, 0, 255, 0))
	require.NoError(t, g.Process(gradient(6, 4)))

	calls := engine.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, float32(1), calls[1][1].Data[0])
	assert.Equal(t, []float32{0}, calls[2][1].Data)

	w, h := g.BackgroundSize()
	assert.Equal(t, 6, w)
	assert.Equal(t, 4, h)
}

func TestGuardedSerialisesCalls(t *testing.T) {
	inFlight := 0
	maxInFlight := 0
	var mu sync.Mutex

	run := inference.EchoMatting(1)
	m, engine := newFakeMatting(t, func(call int, inputs []inference.Tensor) ([]inference.Tensor, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		defer func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
		return run(call, inputs)
	})

	g := NewGuarded(m)
	g.SetBackground(solid(8, 8, 0, 255, 0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, g.Process(gradient(8, 8)))
		}()
	}
	wg.Wait()

	assert.Len(t, engine.Calls(), 8)
	assert.Equal(t, 1, maxInFlight)

	g.Reset()
	require.NoError(t, g.Close())
	assert.True(t, engine.Closed())
}

func TestGuardedClearsBackground(t *testing.T) {
	m, engine := newFakeMatting(t, inference.EchoMatting(1))
	g := NewGuarded(m)

	g.SetBackground(solid(4, 4, 0, 255, 0))
	require.NoError(t, g.Process(gradient(4, 4)))

	assert.NotPanics(t, func() { g.SetBackground(nil) })
	w, h := g.BackgroundSize()
	assert.Zero(t, w)
	assert.Zero(t, h)
	assert.ErrorIs(t, g.Process(gradient(4, 4)), ErrValidation)

	// The next background starts from a fresh recurrent state
	g.SetBackground(solid(4, 4, 0, 255, 0))
	require.NoError(t, g.Process(gradient(4, 4)))

	calls := engine.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []float32{0}, calls[1][1].Data)
}
