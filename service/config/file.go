package config

import (
	"fmt"
	"image/color"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/khaledhikmat/vs-matte/filter"
	"github.com/khaledhikmat/vs-matte/model"
)

type fileConfig struct {
	ShutdownTime   int    `yaml:"shutdownTime"`
	InputFolder    string `yaml:"inputFolder"`
	OutputFolder   string `yaml:"outputFolder"`
	LogFile        string `yaml:"logFile"`
	FailurePolicy  string `yaml:"failurePolicy"`
	FallbackToNoop *bool  `yaml:"fallbackToNoop"`
	StatsSchedule  string `yaml:"statsSchedule"`
	ControlAddress string `yaml:"controlAddress"`
	AgentTimeout   int    `yaml:"agentPeriodicTimeout"`

	Source struct {
		Name       string `yaml:"name"`
		URL        string `yaml:"url"`
		FramerType string `yaml:"framerType"`
		Width      int    `yaml:"width"`
		Height     int    `yaml:"height"`
		FPS        int    `yaml:"fps"`
	} `yaml:"source"`

	Background struct {
		Image       string `yaml:"image"`
		Color       []int  `yaml:"color"`
		WatchPeriod *int   `yaml:"watchPeriod"`
	} `yaml:"background"`

	Filter struct {
		Kind            string  `yaml:"kind"`
		ModelPath       string  `yaml:"modelPath"`
		Backend         string  `yaml:"backend"`
		LibraryPath     string  `yaml:"libraryPath"`
		Threads         int     `yaml:"threads"`
		Profile         string  `yaml:"profile"`
		Scale           float32 `yaml:"scale"`
		DownsampleRatio float32 `yaml:"downsampleRatio"`
		SwapRB          *bool   `yaml:"swapRB"`
	} `yaml:"filter"`

	Sinks       []string       `yaml:"sinks"`
	VideoSink   sinkFileConfig `yaml:"videoSink"`
	Snapshotter sinkFileConfig `yaml:"snapshotter"`
}

type sinkFileConfig struct {
	Target string `yaml:"target"`
	Codec  string `yaml:"codec"`
	FPS    int    `yaml:"fps"`
	Every  int    `yaml:"every"`
}

type fileService struct {
	defaults IService
	cfg      fileConfig
}

// NewFile reads a YAML settings file. Keys the file leaves out keep their
// hardcoded defaults.
func NewFile(path string) (IService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return parse(data)
}

func parse(data []byte) (IService, error) {
	svc := &fileService{
		defaults: NewHardCoded(),
	}

	if err := yaml.Unmarshal(data, &svc.cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if c := svc.cfg.Background.Color; len(c) != 0 && len(c) != 3 {
		return nil, fmt.Errorf("background color needs 3 components, got %d", len(c))
	}

	switch svc.cfg.FailurePolicy {
	case "", FailureSkip, FailurePassthrough, FailureHalt:
	default:
		return nil, fmt.Errorf("unknown failure policy %q", svc.cfg.FailurePolicy)
	}

	return svc, nil
}

func (svc *fileService) GetModeMaxShutdownTime() int {
	return orInt(svc.cfg.ShutdownTime, svc.defaults.GetModeMaxShutdownTime())
}

func (svc *fileService) GetInputFolder() string {
	return orString(svc.cfg.InputFolder, svc.defaults.GetInputFolder())
}

func (svc *fileService) GetOutputFolder() string {
	return orString(svc.cfg.OutputFolder, svc.defaults.GetOutputFolder())
}

func (svc *fileService) GetLogFile() string {
	return orString(svc.cfg.LogFile, svc.defaults.GetLogFile())
}

func (svc *fileService) GetSource() model.Source {
	def := svc.defaults.GetSource()
	src := svc.cfg.Source
	return model.Source{
		Name:       orString(src.Name, def.Name),
		URL:        orString(src.URL, def.URL),
		FramerType: orString(src.FramerType, def.FramerType),
		Width:      orInt(src.Width, def.Width),
		Height:     orInt(src.Height, def.Height),
		FPS:        orInt(src.FPS, def.FPS),
	}
}

func (svc *fileService) GetBackgroundImage() string {
	return orString(svc.cfg.Background.Image, svc.defaults.GetBackgroundImage())
}

func (svc *fileService) GetBackgroundWatchPeriod() int {
	if svc.cfg.Background.WatchPeriod == nil {
		return svc.defaults.GetBackgroundWatchPeriod()
	}
	return *svc.cfg.Background.WatchPeriod
}

func (svc *fileService) GetBackgroundColor() color.RGBA {
	c := svc.cfg.Background.Color
	if len(c) != 3 {
		return svc.defaults.GetBackgroundColor()
	}

	return color.RGBA{R: clampByte(c[0]), G: clampByte(c[1]), B: clampByte(c[2]), A: 255}
}

func (svc *fileService) GetFilterConfig() filter.Config {
	def := svc.defaults.GetFilterConfig()
	f := svc.cfg.Filter
	return filter.Config{
		Kind: orString(f.Kind, def.Kind),
		Matting: filter.MattingConfig{
			ModelPath:       orString(f.ModelPath, def.Matting.ModelPath),
			Backend:         orString(f.Backend, def.Matting.Backend),
			LibraryPath:     orString(f.LibraryPath, def.Matting.LibraryPath),
			Threads:         orInt(f.Threads, def.Matting.Threads),
			Profile:         orString(f.Profile, def.Matting.Profile),
			Scale:           f.Scale,
			DownsampleRatio: f.DownsampleRatio,
			SwapRB:          f.SwapRB,
		},
	}
}

func (svc *fileService) GetFailurePolicy() string {
	return orString(svc.cfg.FailurePolicy, svc.defaults.GetFailurePolicy())
}

func (svc *fileService) GetFallbackToNoop() bool {
	if svc.cfg.FallbackToNoop == nil {
		return svc.defaults.GetFallbackToNoop()
	}
	return *svc.cfg.FallbackToNoop
}

func (svc *fileService) GetSinks() []string {
	if svc.cfg.Sinks == nil {
		return svc.defaults.GetSinks()
	}
	return svc.cfg.Sinks
}

func (svc *fileService) GetSinkParameters(name string) SinkParameters {
	def := svc.defaults.GetSinkParameters(name)

	var sink sinkFileConfig
	switch name {
	case VideoSinkName:
		sink = svc.cfg.VideoSink
	case SnapshotterName:
		sink = svc.cfg.Snapshotter
	default:
		return def
	}

	return SinkParameters{
		Target: orString(sink.Target, def.Target),
		Codec:  orString(sink.Codec, def.Codec),
		FPS:    orInt(sink.FPS, def.FPS),
		Every:  orInt(sink.Every, def.Every),
	}
}

func (svc *fileService) GetStatsSchedule() string {
	return orString(svc.cfg.StatsSchedule, svc.defaults.GetStatsSchedule())
}

func (svc *fileService) GetControlAddress() string {
	return orString(svc.cfg.ControlAddress, svc.defaults.GetControlAddress())
}

func (svc *fileService) GetAgentPeriodicTimeout() int {
	return orInt(svc.cfg.AgentTimeout, svc.defaults.GetAgentPeriodicTimeout())
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
