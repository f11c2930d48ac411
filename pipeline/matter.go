package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/khaledhikmat/vs-matte/filter"
	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/service/config"
	"github.com/khaledhikmat/vs-matte/service/lgr"
)

const (
	matterName = "matter"

	// Only every Nth consecutive failure is reported to the error stream.
	errorReportEvery = 100
)

// ErrHalted is the agent's cancellation cause when the failure policy is halt.
var ErrHalted = errors.New("matter halted on filter failure")

var tracer = otel.Tracer("github.com/khaledhikmat/vs-matte/pipeline")

// Matter runs the background filter over every incoming frame and forwards the
// result to the sinks. It uses a single worker: the recurrent filter state
// depends on frames arriving in order. The returned done channel closes once the
// matter stopped using the filter.
func Matter(canx context.Context,
	svcs ServicesFactory,
	matte *filter.Guarded,
	source model.Source,
	halt context.CancelCauseFunc,
	errorStream chan interface{},
	statsStream chan interface{},
	sinks []chan FrameData) (chan FrameData, <-chan struct{}) {
	in := make(chan FrameData, 2)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer closeAll(sinks)

		policy := svcs.CfgSvc.GetFailurePolicy()
		lgr.Logger.Info("matter starting...",
			slog.String("source", source.Name),
			slog.String("filter", matte.Name()),
			slog.String("failurePolicy", policy),
		)

		startTime := time.Now()
		stats := model.MatterStats{
			Name:   matterName,
			Filter: matte.Name(),
			Source: source.Name,
		}
		var totalProcTime time.Duration
		var bgVersion uint64
		failures := 0

		defer func() {
			stats.Uptime = int64(time.Since(startTime).Seconds())
			stats.FPS = fps(stats.Frames, startTime)
			svcs.Board.Update(stats.Name, stats)
			statsStream <- stats
		}()

		forward := func(f FrameData) bool {
			for _, sink := range sinks {
				select {
				case <-canx.Done():
					return false
				case sink <- f:
				}
			}
			return true
		}

		proc := func(f FrameData) error {
			_, span := tracer.Start(canx, "matter.process",
				trace.WithAttributes(
					attribute.Int("seq", f.Seq),
					attribute.String("size", f.View.String()),
					attribute.String("filter", matte.Name()),
				),
			)
			defer span.End()

			swapped, err := refreshBackground(svcs, matte, f, &bgVersion)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "background")
				return err
			}
			if swapped {
				stats.BackgroundSwaps++
				span.AddEvent("background swapped")
			}

			if err := matte.Process(f.View); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, filter.KindOf(err).String())
				return err
			}

			return nil
		}

		for f := range in {
			begin := time.Now()
			err := proc(f)
			totalProcTime += time.Since(begin)
			stats.Frames++
			stats.AvgProcTime = totalProcTime.Seconds() / float64(stats.Frames)
			stats.FPS = fps(stats.Frames, startTime)

			if err == nil {
				failures = 0
				stats.Composited++
				svcs.Board.Update(stats.Name, stats)
				if !forward(f) {
					lgr.Logger.Info("matter context cancelled while sending!!")
				}
				continue
			}

			failures++
			countFailure(&stats, err)
			svcs.Board.Update(stats.Name, stats)

			if failures == 1 || failures%errorReportEvery == 0 {
				lgr.Logger.Warn("filter failed",
					slog.Int("seq", f.Seq),
					slog.Int("consecutive", failures),
					slog.Any("error", err),
				)
				errorStream <- model.GenError("agent_matter",
					err,
					map[string]interface{}{"seq": f.Seq, "consecutive": failures},
					"error filtering frame %d",
					f.Seq)
			}

			switch policy {
			case config.FailureHalt:
				halt(fmt.Errorf("%w: %w", ErrHalted, err))
				// drain so the framer never blocks on a stalled consumer
				for range in {
				}
				return
			case config.FailurePassthrough:
				// the filter leaves the source untouched on failure
				stats.Passthrough++
				forward(f)
			default:
				stats.Skipped++
			}
		}

		lgr.Logger.Info("matter stream closed")
	}()

	return in, done
}

// refreshBackground hands the filter a background of the frame's size whenever
// the size or the background itself changed.
func refreshBackground(svcs ServicesFactory, matte *filter.Guarded, f FrameData, version *uint64) (bool, error) {
	current := svcs.BackgroundSvc.Version()
	w, h := matte.BackgroundSize()
	if current == *version && w == f.View.Width && h == f.View.Height {
		return false, nil
	}

	bg, err := svcs.BackgroundSvc.Frame(f.View.Width, f.View.Height)
	if err != nil {
		return false, err
	}

	matte.SetBackground(bg)
	*version = current
	return true, nil
}

func countFailure(stats *model.MatterStats, err error) {
	switch filter.KindOf(err) {
	case filter.KindValidation:
		stats.ValidationErrors++
	case filter.KindLogic:
		stats.LogicErrors++
	default:
		stats.BackendErrors++
	}
}
