package mode

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/khaledhikmat/vs-matte/filter"
	"github.com/khaledhikmat/vs-matte/frame"
	"github.com/khaledhikmat/vs-matte/pipeline"
	"github.com/khaledhikmat/vs-matte/service/inference"
	"github.com/khaledhikmat/vs-matte/service/lgr"
)

const probeOutputs = 6

type probeReport struct {
	Outputs  []string
	Snapshot string
}

// Probe loads the configured model, checks that a single zero-state step
// honours the six output contract and stores one composite as a snapshot.
func Probe(_ context.Context, svcs pipeline.ServicesFactory) error {
	cfg := svcs.CfgSvc.GetFilterConfig()
	if cfg.Kind != filter.KindMatting {
		lgr.Logger.Info("nothing to probe", slog.String("filter", cfg.Kind))
		return nil
	}

	profile, err := cfg.Matting.ResolveProfile()
	if err != nil {
		return err
	}

	engine, err := inference.New(inference.Config{
		Backend:     cfg.Matting.Backend,
		ModelPath:   cfg.Matting.ModelPath,
		LibraryPath: cfg.Matting.LibraryPath,
		Threads:     cfg.Matting.Threads,
		InputNames:  profile.InputNames,
		OutputNames: profile.OutputNames,
	})
	if err != nil {
		return fmt.Errorf("error loading model: %w", err)
	}

	source := svcs.CfgSvc.GetSource()
	report, err := probe(svcs, engine, profile, source.Width, source.Height)
	if err != nil {
		return err
	}

	lgr.Logger.Info("probe succeeded",
		slog.String("model", cfg.Matting.ModelPath),
		slog.String("backend", cfg.Matting.Backend),
		slog.Any("outputs", report.Outputs),
		slog.String("snapshot", report.Snapshot),
	)
	return nil
}

// probe takes ownership of engine.
func probe(svcs pipeline.ServicesFactory, engine inference.IService, profile filter.Profile, width, height int) (probeReport, error) {
	report := probeReport{}

	inputs := []inference.Tensor{
		inference.NewTensor(1, 3, int64(height), int64(width)),
		inference.NewTensor(1, 1, 1, 1),
		inference.NewTensor(1, 1, 1, 1),
		inference.NewTensor(1, 1, 1, 1),
		inference.NewTensor(1, 1, 1, 1),
		{Shape: []int64{1}, Data: []float32{profile.DownsampleRatio}},
	}

	outputs, err := engine.Run(inputs)
	if err != nil {
		engine.Close()
		return report, fmt.Errorf("error running model: %w", err)
	}

	for _, o := range outputs {
		report.Outputs = append(report.Outputs, o.String())
	}

	if len(outputs) != probeOutputs {
		engine.Close()
		return report, fmt.Errorf("model returned %d outputs, want %d", len(outputs), probeOutputs)
	}

	matting, err := filter.NewMattingWithEngine(engine, profile, filter.WithObserver(func(composite *frame.View) {
		fn, err := svcs.StorageSvc.StoreFrame(composite)
		if err != nil {
			lgr.Logger.Error("error storing probe snapshot", slog.Any("error", err))
			return
		}
		report.Snapshot = fn
	}))
	if err != nil {
		engine.Close()
		return report, err
	}
	defer matting.Close()

	bg, err := svcs.BackgroundSvc.Frame(width, height)
	if err != nil {
		return report, err
	}

	src := frame.New(width, height, 3)
	rand.Read(src.Pix)
	if _, err := matting.Filter(src, bg); err != nil {
		return report, err
	}

	return report, nil
}
