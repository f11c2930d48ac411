package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/vs-matte/frame"
	"github.com/khaledhikmat/vs-matte/frame/cvframe"
	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/service/lgr"
)

const (
	CaptureFramerType = "capture"
	RandomFramerType  = "random"

	// consecutive failed reads that end a capture
	maxReadFailures = 100
)

// framer produces frames until the context is cancelled or the source runs dry,
// then closes every stream channel.
func framer(canxCtx context.Context, svcs ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}, streamChannels []chan FrameData) error {
	switch source.FramerType {
	case RandomFramerType:
		go randomFramer(canxCtx, svcs, source, errorStream, statsStream, streamChannels)
	case CaptureFramerType, "":
		go captureFramer(canxCtx, svcs, source, errorStream, statsStream, streamChannels)
	default:
		return fmt.Errorf("framer type %s not found", source.FramerType)
	}
	return nil
}

func closeAll(streamChannels []chan FrameData) {
	for _, streamChan := range streamChannels {
		close(streamChan)
	}
}

// route hands a frame to every stream without blocking. A stream that is still
// busy with an earlier frame misses this one. It returns false once cancelled.
func route(canxCtx context.Context, streamChannels []chan FrameData, fd FrameData, stats *model.FramerStats) bool {
	for _, streamChan := range streamChannels {
		select {
		case <-canxCtx.Done():
			return false
		case streamChan <- fd:
		default:
			stats.DroppedFrames++
		}
	}
	return true
}

func captureFramer(canxCtx context.Context, svcs ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}, streamChannels []chan FrameData) {
	defer closeAll(streamChannels)

	webcam, err := gocv.OpenVideoCapture(source.URL)
	if err != nil {
		errorStream <- model.GenError("agent_capture_framer",
			err,
			map[string]interface{}{"url": source.URL},
			"error opening capture source")
		return
	}
	defer webcam.Close()

	if source.Width > 0 && source.Height > 0 {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(source.Width))
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(source.Height))
	}

	lgr.Logger.Info("capture framer started",
		slog.String("source", source.Name),
		slog.String("url", source.URL),
		slog.String("openCV", gocv.Version()),
	)

	startTime := time.Now()
	stats := model.FramerStats{
		Name:   "captureFramer",
		Source: source.Name,
	}

	defer func() {
		stats.Uptime = int64(time.Since(startTime).Seconds())
		stats.FPS = fps(stats.Frames, startTime)
		svcs.Board.Update(stats.Name, stats)
		statsStream <- stats
	}()

	img := gocv.NewMat()
	defer img.Close() // Crucial to close the image to avoid memory leaks

	failures := 0
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info("captureFramer context cancelled")
			return

		default:
			if ok := webcam.Read(&img); !ok || img.Empty() {
				stats.Errors++
				failures++
				if failures >= maxReadFailures {
					lgr.Logger.Warn("capture source stopped producing frames",
						slog.String("source", source.Name),
						slog.Int("failures", failures),
					)
					return
				}
				continue
			}
			failures = 0

			v, err := cvframe.FromMat(img)
			if err != nil {
				stats.Errors++
				continue
			}

			stats.Frames++
			if !route(canxCtx, streamChannels, FrameData{View: v, Seq: stats.Frames, Timestamp: time.Now()}, &stats) {
				lgr.Logger.Info("captureFramer context cancelled while sending!!")
				return
			}

			stats.FPS = fps(stats.Frames, startTime)
			svcs.Board.Update(stats.Name, stats)
		}
	}
}

// randomFramer paces noise frames at the source frame rate. It needs no camera.
func randomFramer(canxCtx context.Context, svcs ServicesFactory, source model.Source, _ chan interface{}, statsStream chan interface{}, streamChannels []chan FrameData) {
	defer closeAll(streamChannels)

	width, height := source.Width, source.Height
	if width <= 0 || height <= 0 {
		width, height = 640, 480
	}

	rate := source.FPS
	if rate <= 0 {
		rate = 30
	}

	startTime := time.Now()
	stats := model.FramerStats{
		Name:   "randomFramer",
		Source: source.Name,
	}

	defer func() {
		stats.Uptime = int64(time.Since(startTime).Seconds())
		stats.FPS = fps(stats.Frames, startTime)
		svcs.Board.Update(stats.Name, stats)
		statsStream <- stats
	}()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info("randomFramer context cancelled")
			return

		case <-ticker.C:
			v := frame.New(width, height, 3)
			rnd.Read(v.Pix)

			stats.Frames++
			if !route(canxCtx, streamChannels, FrameData{View: v, Seq: stats.Frames, Timestamp: time.Now()}, &stats) {
				lgr.Logger.Info("randomFramer context cancelled while sending!!")
				return
			}

			stats.FPS = fps(stats.Frames, startTime)
			svcs.Board.Update(stats.Name, stats)
		}
	}
}
