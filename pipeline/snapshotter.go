package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/service/config"
	"github.com/khaledhikmat/vs-matte/service/lgr"
)

// Snapshotter stores every Nth composited frame through the storage service.
func Snapshotter(canx context.Context, svcs ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}) chan FrameData {
	in := make(chan FrameData, 4)

	go func() {
		every := svcs.CfgSvc.GetSinkParameters(config.SnapshotterName).Every
		if every <= 0 {
			every = 1
		}

		startTime := time.Now()
		stats := model.SinkStats{
			Name:   config.SnapshotterName,
			Source: source.Name,
		}

		defer func() {
			stats.Uptime = int64(time.Since(startTime).Seconds())
			svcs.Board.Update(stats.Name, stats)
			statsStream <- stats
		}()

		seen := 0
		for f := range in {
			seen++
			if seen%every != 0 {
				continue
			}

			fn, err := svcs.StorageSvc.StoreFrame(f.View)
			if err != nil {
				stats.Errors++
				errorStream <- model.GenError("agent_snapshotter",
					err,
					map[string]interface{}{"seq": f.Seq},
					"error storing snapshot of frame %d",
					f.Seq)
				continue
			}

			stats.Frames++
			svcs.Board.Update(stats.Name, stats)
			lgr.Logger.Debug("snapshot stored",
				slog.String("source", source.Name),
				slog.Int("seq", f.Seq),
				slog.String("file", fn),
			)
		}
	}()

	return in
}
