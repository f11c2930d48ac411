package mode

import (
	"context"
	"log/slog"

	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/pipeline"
	"github.com/khaledhikmat/vs-matte/service/data"
	"github.com/khaledhikmat/vs-matte/service/lgr"
)

type Processor func(canxCtx context.Context, svcs pipeline.ServicesFactory) error

func procStats(datasvc data.IService, stats interface{}) {
	var err error
	switch stats := stats.(type) {
	case model.AgentStats:
		err = datasvc.NewAgentStats(stats)
	case model.FramerStats:
		err = datasvc.NewFramerStats(stats)
	case model.MatterStats:
		err = datasvc.NewMatterStats(stats)
	case model.SinkStats:
		err = datasvc.NewSinkStats(stats)
	default:
		lgr.Logger.Error(
			"unknown stats type",
			slog.Any("stats", stats),
		)
		return
	}

	if err != nil {
		lgr.Logger.Error(
			"failed to store stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err interface{}) {
	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}
