package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-matte/mode"
	"github.com/khaledhikmat/vs-matte/pipeline"
	"github.com/khaledhikmat/vs-matte/service/background"
	"github.com/khaledhikmat/vs-matte/service/config"
	"github.com/khaledhikmat/vs-matte/service/data"
	"github.com/khaledhikmat/vs-matte/service/lgr"
	"github.com/khaledhikmat/vs-matte/service/storage"
)

const (
	// WARNING: this has to be bigger that the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"stream": mode.Stream,
	"probe":  mode.Probe,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		err := godotenv.Load()
		if err != nil {
			// a missing .env is fine, everything has a default
			lgr.Logger.Warn("no .env file loaded", slog.Any("error", xerrors.New(err.Error())))
		}
	}

	modeType := "stream"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		panic("invalid mode")
	}

	// Config service
	cfgSvc := config.NewHardCoded()
	if path := os.Getenv("VS_MATTE_CONFIG"); path != "" {
		fileSvc, err := config.NewFile(path)
		if err != nil {
			lgr.Logger.Error("error loading config file", slog.String("path", path), slog.Any("error", xerrors.New(err.Error())))
			panic("error loading config file")
		}
		cfgSvc = fileSvc
	}

	lgr.ToFile(cfgSvc.GetLogFile())

	svcs := pipeline.ServicesFactory{
		CfgSvc:        cfgSvc,
		DataSvc:       data.NewFilesDB(cfgSvc),
		StorageSvc:    storage.NewLocal(cfgSvc.GetSinkParameters(config.SnapshotterName).Target),
		BackgroundSvc: background.NewScaled(cfgSvc.GetBackgroundColor()),
		Board:         pipeline.NewStatsBoard(),
	}

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs)
	}()

	exitCode := 0

	// Wait for cancellation or mode proc
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"vs-matte context cancelled",
		)

	case err := <-modeProcResult:
		if err != nil {
			exitCode = 1
			lgr.Logger.Error(
				"vs-matte mode processor exited",
				slog.String("mode", modeType),
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
		// nothing left to wait for
		canxFn()
		os.Exit(exitCode)
	}

	lgr.Logger.Info(
		"vs-matte is waiting for the mode processor to exit",
	)

	// The only way to exit the main function is to wait for the shutdown
	// duration
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		// Timer expired, proceed with shutdown
		lgr.Logger.Info(
			"vs-matte shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Info(
				"vs-matte mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
	}
}
