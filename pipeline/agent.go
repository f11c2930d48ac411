package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/khaledhikmat/vs-matte/filter"
	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/service/config"
	"github.com/khaledhikmat/vs-matte/service/lgr"
)

// Sink processes
var sinkProcs = map[string]Sink{
	config.VideoSinkName:   VideoSink,
	config.SnapshotterName: Snapshotter,
}

func RegisterSink(name string, sink Sink) {
	if _, ok := sinkProcs[name]; ok {
		lgr.Logger.Warn("sink already registered", slog.String("name", name))
		return
	}
	sinkProcs[name] = sink
}

// Agent runs framer -> matter -> sinks for one source until the context is
// cancelled, the source runs dry or the matter halts. It returns once the matter
// no longer uses the filter.
func Agent(canxCtx context.Context,
	svcs ServicesFactory,
	matte *filter.Guarded,
	errorStream chan interface{},
	statsStream chan interface{},
	source model.Source,
	sinkNames []string) error {
	agentID := uuid.NewString()
	lgr.Logger.Info(
		"agent starting....",
		slog.String("agentID", agentID),
		slog.String("source", source.Name),
		slog.String("framerType", source.FramerType),
		slog.String("url", source.URL),
		slog.String("filter", matte.Name()),
		slog.String("sinks", fmt.Sprintf("%v", sinkNames)),
	)

	agentCtx, halt := context.WithCancelCause(canxCtx)
	defer halt(nil)

	// Setup the sink channels
	sinkChannels := []chan FrameData{}
	for _, name := range sinkNames {
		sink, ok := sinkProcs[name]
		if !ok {
			closeAll(sinkChannels)
			return fmt.Errorf("sink %s not found", name)
		}
		sinkChannels = append(sinkChannels, sink(agentCtx, svcs, source, errorStream, statsStream))
	}

	matterIn, matterDone := Matter(agentCtx, svcs, matte, source, halt, errorStream, statsStream, sinkChannels)

	// Start the agent frame capturer
	if err := framer(agentCtx, svcs, source, errorStream, statsStream, []chan FrameData{matterIn}); err != nil {
		close(matterIn)
		<-matterDone
		return err
	}

	startTime := time.Now()
	agentStats := model.AgentStats{
		ID:     agentID,
		Source: source.Name,
		Filter: matte.Name(),
	}

	period := svcs.CfgSvc.GetAgentPeriodicTimeout()
	if period <= 0 {
		period = 30
	}
	ticker := time.NewTicker(time.Duration(period) * time.Second)
	defer ticker.Stop()

	finish := func(reason string) error {
		agentStats.Uptime = int64(time.Since(startTime).Seconds())
		svcs.Board.Update("agent", agentStats)

		if cause := context.Cause(agentCtx); errors.Is(cause, ErrHalted) {
			lgr.Logger.Error("agent halted", slog.Any("error", cause))
			return cause
		}

		lgr.Logger.Info(reason, slog.String("agentID", agentID))
		return nil
	}

	for {
		select {
		case <-matterDone:
			return finish("agent source exhausted")

		case <-agentCtx.Done():
			<-matterDone
			return finish("agent context cancelled")

		case <-ticker.C:
			agentStats.Uptime = int64(time.Since(startTime).Seconds())
			svcs.Board.Update("agent", agentStats)

			// Send the stats to OTEL
			statsStream <- agentStats
		}
	}
}
