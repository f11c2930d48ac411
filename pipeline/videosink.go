package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/vs-matte/frame/cvframe"
	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/service/config"
	"github.com/khaledhikmat/vs-matte/service/lgr"
)

// VideoSink writes composited frames through an OpenCV video writer. The target
// is either a file or a GStreamer pipeline (e.g. one ending in v4l2sink to feed
// a virtual camera). The writer is opened on the first frame so it picks up the
// real frame size.
func VideoSink(canx context.Context, svcs ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}) chan FrameData {
	in := make(chan FrameData, 4)

	go func() {
		params := svcs.CfgSvc.GetSinkParameters(config.VideoSinkName)

		lgr.Logger.Info("video sink initialized...",
			slog.String("source", source.Name),
			slog.String("target", params.Target),
			slog.String("codec", params.Codec),
		)

		startTime := time.Now()
		stats := model.SinkStats{
			Name:   config.VideoSinkName,
			Source: source.Name,
		}

		var writer *gocv.VideoWriter
		var size image.Point

		defer func() {
			if writer != nil {
				writer.Close()
			}
			stats.Uptime = int64(time.Since(startTime).Seconds())
			svcs.Board.Update(stats.Name, stats)
			statsStream <- stats
		}()

		proc := func(f FrameData) error {
			if writer == nil {
				w, err := openWriter(params, f.View.Width, f.View.Height)
				if err != nil {
					return err
				}
				writer = w
				size = image.Pt(f.View.Width, f.View.Height)
			}

			mat, err := cvframe.ToMat(f.View)
			if err != nil {
				return err
			}
			defer mat.Close()

			// Check if the frame dimensions match the video dimensions
			if mat.Cols() != size.X || mat.Rows() != size.Y {
				resized := gocv.NewMat()
				defer resized.Close()
				if err := gocv.Resize(mat, &resized, size, 0, 0, gocv.InterpolationLinear); err != nil {
					return err
				}
				return writer.Write(resized)
			}

			return writer.Write(mat)
		}

		for f := range in {
			if err := proc(f); err != nil {
				stats.Errors++
				errorStream <- model.GenError("agent_video_sink",
					err,
					map[string]interface{}{"target": params.Target, "seq": f.Seq},
					"error writing frame %d",
					f.Seq)

				// a writer that failed to open will not open on the next frame either
				if writer == nil {
					lgr.Logger.Error("video sink giving up", slog.String("target", params.Target))
					for range in {
						stats.Dropped++
					}
					return
				}
				continue
			}

			stats.Frames++
			svcs.Board.Update(stats.Name, stats)
		}

		lgr.Logger.Info("video sink stream closed", slog.Int("frames", stats.Frames))
	}()

	return in
}

func isPipeline(target string) bool {
	return strings.Contains(target, "!")
}

func openWriter(params config.SinkParameters, width, height int) (*gocv.VideoWriter, error) {
	if len(params.Codec) != 4 {
		return nil, fmt.Errorf("codec must be a fourcc, got %q", params.Codec)
	}

	fps := params.FPS
	if fps <= 0 {
		fps = 30
	}

	if !isPipeline(params.Target) {
		if err := os.MkdirAll(filepath.Dir(params.Target), 0755); err != nil {
			return nil, err
		}
	}

	writer, err := gocv.VideoWriterFile(params.Target, params.Codec, float64(fps), width, height, true)
	if err != nil {
		return nil, err
	}

	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("video writer for %s did not open", params.Target)
	}

	return writer, nil
}
