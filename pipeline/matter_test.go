package pipeline

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/service/config"
	"github.com/khaledhikmat/vs-matte/service/inference"
)

func TestMatterCompositesOntoBackground(t *testing.T) {
	svcs := newTestServices(config.FailurePassthrough)
	matte, engine := newTestMatte(t, inference.EchoMatting(0))
	r := startMatter(t, svcs, matte)

	for i := 1; i <= 3; i++ {
		r.in <- FrameData{View: gradient(8, 6), Seq: i, Timestamp: time.Now()}
	}

	frames, stats := r.finish(t)
	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, i+1, f.Seq)
		assert.True(t, isSolid(f.View, 0, 255, 0))
	}

	assert.Equal(t, 3, stats.Frames)
	assert.Equal(t, 3, stats.Composited)
	assert.Equal(t, 1, stats.BackgroundSwaps)
	assert.Equal(t, "matting", stats.Filter)
	assert.Len(t, engine.Calls(), 3)

	onBoard, ok := svcs.Board.Get(matterName)
	require.True(t, ok)
	assert.Equal(t, 3, onBoard.(model.MatterStats).Composited)
}

func TestMatterPicksUpBackgroundChanges(t *testing.T) {
	svcs := newTestServices(config.FailurePassthrough)
	matte, _ := newTestMatte(t, inference.EchoMatting(0))
	r := startMatter(t, svcs, matte)

	r.in <- FrameData{View: gradient(4, 4), Seq: 1}
	first := <-r.out
	assert.True(t, isSolid(first.View, 0, 255, 0))

	svcs.BackgroundSvc.ReplaceColor(color.RGBA{R: 1, G: 2, B: 3, A: 255})
	r.in <- FrameData{View: gradient(4, 4), Seq: 2}
	second := <-r.out
	assert.True(t, isSolid(second.View, 1, 2, 3))

	// a new size needs a freshly scaled background
	r.in <- FrameData{View: gradient(6, 2), Seq: 3}
	third := <-r.out
	assert.Equal(t, 6, third.View.Width)
	assert.True(t, isSolid(third.View, 1, 2, 3))

	_, stats := r.finish(t)
	assert.Equal(t, 3, stats.BackgroundSwaps)
}

func TestMatterFailurePolicies(t *testing.T) {
	tests := []struct {
		policy      string
		forwarded   int
		passthrough int
		skipped     int
	}{
		{policy: config.FailurePassthrough, forwarded: 2, passthrough: 2},
		{policy: config.FailureSkip, forwarded: 0, skipped: 2},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			svcs := newTestServices(tt.policy)
			matte, _ := newTestMatte(t, failing)
			r := startMatter(t, svcs, matte)

			src := gradient(4, 4)
			want := src.Clone()
			r.in <- FrameData{View: src, Seq: 1}
			r.in <- FrameData{View: gradient(4, 4), Seq: 2}

			frames, stats := r.finish(t)
			require.Len(t, frames, tt.forwarded)
			if tt.forwarded > 0 {
				assert.Equal(t, want.Pix, frames[0].View.Pix)
			}

			assert.Equal(t, 2, stats.Frames)
			assert.Equal(t, 0, stats.Composited)
			assert.Equal(t, 2, stats.BackendErrors)
			assert.Equal(t, tt.passthrough, stats.Passthrough)
			assert.Equal(t, tt.skipped, stats.Skipped)

			// only the first of a run of failures is reported
			assert.Len(t, r.errors, 1)
			e := (<-r.errors).(model.CustomError)
			assert.Equal(t, "agent_matter", e.Processor)
		})
	}
}

func TestMatterValidationFailureIsCounted(t *testing.T) {
	svcs := newTestServices(config.FailureSkip)
	matte, engine := newTestMatte(t, inference.EchoMatting(1))
	r := startMatter(t, svcs, matte)

	gray := gradient(4, 4)
	gray.Channels = 1
	gray.Stride = 4
	r.in <- FrameData{View: gray, Seq: 1}

	frames, stats := r.finish(t)
	assert.Empty(t, frames)
	assert.Equal(t, 1, stats.ValidationErrors)
	assert.Empty(t, engine.Calls())
}

func TestMatterHaltCancelsAgent(t *testing.T) {
	svcs := newTestServices(config.FailureHalt)
	matte, _ := newTestMatte(t, failing)
	r := startMatter(t, svcs, matte)

	r.in <- FrameData{View: gradient(4, 4), Seq: 1}
	// frames after the halt are drained, never forwarded
	r.in <- FrameData{View: gradient(4, 4), Seq: 2}

	frames, stats := r.finish(t)
	assert.Empty(t, frames)
	assert.Equal(t, 1, stats.Frames)
	assert.ErrorIs(t, r.haltErr, ErrHalted)
}
