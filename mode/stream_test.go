package mode

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-matte/filter"
	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/pipeline"
	"github.com/khaledhikmat/vs-matte/service/config"
	"github.com/khaledhikmat/vs-matte/service/data"
)

type streamConfig struct {
	config.IService
	filter   filter.Config
	fallback bool
	output   string
}

func (c streamConfig) GetFilterConfig() filter.Config { return c.filter }
func (c streamConfig) GetFallbackToNoop() bool        { return c.fallback }
func (c streamConfig) GetOutputFolder() string        { return c.output }

func missingModel(t *testing.T) filter.Config {
	return filter.Config{
		Kind: filter.KindMatting,
		Matting: filter.MattingConfig{
			ModelPath: filepath.Join(t.TempDir(), "missing.onnx"),
			Backend:   "onnxruntime",
			Profile:   filter.DefaultProfileName,
		},
	}
}

func TestBuildFilterFallsBackToNoop(t *testing.T) {
	cfg := streamConfig{IService: config.NewHardCoded(), filter: missingModel(t), fallback: true}

	matte, err := buildFilter(cfg)
	require.NoError(t, err)
	assert.Equal(t, filter.KindNoop, matte.Name())
}

func TestBuildFilterWithoutFallbackFails(t *testing.T) {
	cfg := streamConfig{IService: config.NewHardCoded(), filter: missingModel(t), fallback: false}

	_, err := buildFilter(cfg)
	assert.ErrorIs(t, err, filter.ErrBackend)
}

func TestBuildFilterNeverHidesConfigErrors(t *testing.T) {
	bad := missingModel(t)
	bad.Matting.Profile = "rvm-unknown"
	cfg := streamConfig{IService: config.NewHardCoded(), filter: bad, fallback: true}

	_, err := buildFilter(cfg)
	assert.ErrorIs(t, err, filter.ErrValidation)
}

func TestReportStatsPersistsBoard(t *testing.T) {
	cfg := streamConfig{IService: config.NewHardCoded(), output: t.TempDir()}
	svcs := pipeline.ServicesFactory{
		CfgSvc:  cfg,
		DataSvc: data.NewFilesDB(cfg),
		Board:   pipeline.NewStatsBoard(),
	}

	svcs.Board.Update("matter", model.MatterStats{Name: "matter", Frames: 42})
	svcs.Board.Update("videoSink", model.SinkStats{Name: "videoSink", Frames: 40})
	reportStats(svcs)

	stats, err := svcs.DataSvc.RetrieveMatterStats()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 42, stats[0].Frames)
	assert.FileExists(t, filepath.Join(cfg.output, "sink-stats.json"))
}
