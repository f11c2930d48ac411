package config

import (
	"image/color"

	"github.com/khaledhikmat/vs-matte/filter"
	"github.com/khaledhikmat/vs-matte/model"
)

const (
	VideoSinkName   = "videoSink"
	SnapshotterName = "snapshotter"
)

// What the matter does with a frame the filter failed on.
const (
	FailureSkip        = "skip"        // drop the frame
	FailurePassthrough = "passthrough" // forward the unfiltered frame
	FailureHalt        = "halt"        // stop the agent
)

type SinkParameters struct {
	// Target is a file name or a GStreamer pipeline ending in a sink element.
	Target string
	Codec  string
	FPS    int
	// Every stores one snapshot per Every frames.
	Every int
}

type IService interface {
	GetModeMaxShutdownTime() int
	GetInputFolder() string
	GetOutputFolder() string
	GetLogFile() string
	GetSource() model.Source
	GetBackgroundImage() string
	// GetBackgroundWatchPeriod is the reload poll interval in seconds, zero disables it.
	GetBackgroundWatchPeriod() int
	GetBackgroundColor() color.RGBA
	GetFilterConfig() filter.Config
	GetFailurePolicy() string
	GetFallbackToNoop() bool
	GetSinks() []string
	GetSinkParameters(name string) SinkParameters
	GetStatsSchedule() string
	GetControlAddress() string
	GetAgentPeriodicTimeout() int
}
