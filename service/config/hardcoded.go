package config

import (
	"fmt"
	"image/color"

	"github.com/khaledhikmat/vs-matte/filter"
	"github.com/khaledhikmat/vs-matte/model"
)

// hardcodedService holds the defaults. The file service falls back to it for
// every key the YAML file leaves unset.
type hardcodedService struct {
}

func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetModeMaxShutdownTime() int {
	return 5
}

func (svc *hardcodedService) GetInputFolder() string {
	return "./settings"
}

func (svc *hardcodedService) GetOutputFolder() string {
	return "./output"
}

func (svc *hardcodedService) GetLogFile() string {
	return ""
}

func (svc *hardcodedService) GetSource() model.Source {
	return model.Source{
		Name:       "webcam",
		URL:        "0",
		FramerType: "capture",
		Width:      640,
		Height:     480,
		FPS:        30,
	}
}

func (svc *hardcodedService) GetBackgroundImage() string {
	return ""
}

func (svc *hardcodedService) GetBackgroundWatchPeriod() int {
	return 5
}

func (svc *hardcodedService) GetBackgroundColor() color.RGBA {
	return color.RGBA{R: 0, G: 255, B: 0, A: 255}
}

func (svc *hardcodedService) GetFilterConfig() filter.Config {
	return filter.Config{
		Kind: filter.KindMatting,
		Matting: filter.MattingConfig{
			ModelPath: "./models/rvm_mobilenetv3_fp32.onnx",
			Backend:   "onnxruntime",
			Threads:   4,
			Profile:   filter.DefaultProfileName,
		},
	}
}

func (svc *hardcodedService) GetFailurePolicy() string {
	return FailurePassthrough
}

func (svc *hardcodedService) GetFallbackToNoop() bool {
	return true
}

func (svc *hardcodedService) GetSinks() []string {
	return []string{VideoSinkName}
}

func (svc *hardcodedService) GetSinkParameters(name string) SinkParameters {
	if name == VideoSinkName {
		return SinkParameters{
			Target: fmt.Sprintf("%s/matte.avi", svc.GetOutputFolder()),
			Codec:  "MJPG",
			FPS:    30,
		}
	}

	if name == SnapshotterName {
		return SinkParameters{
			Target: fmt.Sprintf("%s/snapshots", svc.GetOutputFolder()),
			Every:  300,
		}
	}

	return SinkParameters{}
}

func (svc *hardcodedService) GetStatsSchedule() string {
	return "@every 30s"
}

func (svc *hardcodedService) GetControlAddress() string {
	return ":8090"
}

func (svc *hardcodedService) GetAgentPeriodicTimeout() int {
	return 30
}
