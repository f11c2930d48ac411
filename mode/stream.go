package mode

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/khaledhikmat/vs-matte/control"
	"github.com/khaledhikmat/vs-matte/filter"
	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/pipeline"
	"github.com/khaledhikmat/vs-matte/service/config"
	"github.com/khaledhikmat/vs-matte/service/lgr"
	"github.com/khaledhikmat/vs-matte/service/watcher"
)

// Stream runs one agent over the configured source until cancelled, serving the
// control API and reporting stats on the configured schedule.
func Stream(canxCtx context.Context, svcs pipeline.ServicesFactory) error {
	matte, err := buildFilter(svcs.CfgSvc)
	if err != nil {
		return err
	}

	// Error and stats streams stay open: a slow agent may still report after we return
	errorStream := make(chan interface{})
	statsStream := make(chan interface{})

	var changes <-chan string
	if path := svcs.CfgSvc.GetBackgroundImage(); path != "" {
		if err := svcs.BackgroundSvc.ReplaceFile(path); err != nil {
			procError(svcs.DataSvc, model.GenError("stream_mode", err, map[string]interface{}{"path": path}, "error loading background image"))
		}

		if period := svcs.CfgSvc.GetBackgroundWatchPeriod(); period > 0 {
			watcherSvc := watcher.NewTimed(canxCtx, path, time.Duration(period)*time.Second)
			defer watcherSvc.Finalize()

			changes, err = watcherSvc.Subscribe()
			if err != nil {
				procError(svcs.DataSvc, model.GenError("stream_mode", err, nil, "error watching background image"))
			}
		}
	}

	reporter := cron.New()
	if _, err := reporter.AddFunc(svcs.CfgSvc.GetStatsSchedule(), func() { reportStats(svcs) }); err != nil {
		return err
	}
	reporter.Start()
	defer reporter.Stop()

	server := control.New(svcs.CfgSvc.GetControlAddress(), svcs.Board, svcs.BackgroundSvc, matte)
	go func() {
		if err := server.Start(); err != nil {
			lgr.Logger.Error("control server failed", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	agentResult := make(chan error, 1)
	agentRunning := true
	go func() {
		agentResult <- pipeline.Agent(canxCtx, svcs, matte, errorStream, statsStream, svcs.CfgSvc.GetSource(), svcs.CfgSvc.GetSinks())
	}()

	var agentErr error

	// Wait for cancellation, agent exit, stats or errors
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"stream mode context cancelled",
			)
			goto resume

		case agentErr = <-agentResult:
			agentRunning = false
			if agentErr != nil {
				procError(svcs.DataSvc, model.GenError("stream_mode",
					agentErr,
					map[string]interface{}{},
					"agent exited"))
			}
			goto resume

		case path := <-changes:
			if err := svcs.BackgroundSvc.ReplaceFile(path); err != nil {
				procError(svcs.DataSvc, model.GenError("stream_mode", err, map[string]interface{}{"path": path}, "error reloading background image"))
			}

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}

	// Wait in a non-blocking way for the shutdown period for all the go routines to exit
	// This is needed because the go routines may need to report errors as they are existing
resume:
	lgr.Logger.Info(
		"stream mode is waiting for all go routines to exit",
	)

	// The only way to exit is to wait for the shutdown duration
	timer := time.NewTimer(time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			// Timer expired, proceed with shutdown
			lgr.Logger.Info(
				"stream mode shutdown waiting period expired. Exiting now",
				slog.Duration("period", time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second),
			)

			reportStats(svcs)

			// a still running matter may be inside the filter
			if agentRunning {
				lgr.Logger.Warn("agent still running, leaving the filter open")
				return agentErr
			}

			if err := matte.Close(); err != nil {
				lgr.Logger.Error("error closing filter", slog.Any("error", err))
			}
			return agentErr

		case err := <-agentResult:
			agentRunning = false
			agentErr = err

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}
}

// buildFilter creates the configured filter. When the model cannot be loaded and
// the fallback is enabled, frames pass through a noop filter instead.
func buildFilter(cfgSvc config.IService) (*filter.Guarded, error) {
	f, err := filter.New(cfgSvc.GetFilterConfig())
	if err == nil {
		return filter.NewGuarded(f), nil
	}

	if !errors.Is(err, filter.ErrBackend) || !cfgSvc.GetFallbackToNoop() {
		return nil, err
	}

	lgr.Logger.Warn("filter unavailable, falling back to noop",
		slog.Any("error", err),
	)
	return filter.NewGuarded(filter.NewNoop()), nil
}

// reportStats persists and logs the latest snapshot of every pipeline stage.
func reportStats(svcs pipeline.ServicesFactory) {
	snapshot := svcs.Board.Snapshot()
	for _, name := range svcs.Board.Names() {
		procStats(svcs.DataSvc, snapshot[name])
	}

	if s, ok := snapshot["matter"].(model.MatterStats); ok {
		lgr.Logger.Info("matter stats",
			slog.String("filter", s.Filter),
			slog.Int("frames", s.Frames),
			slog.Int("composited", s.Composited),
			slog.Int("fps", s.FPS),
			slog.Float64("avgProcTime", s.AvgProcTime),
		)
	}
}
