package pipeline

import (
	"context"
	"time"

	"github.com/khaledhikmat/vs-matte/frame"
	"github.com/khaledhikmat/vs-matte/model"
	"github.com/khaledhikmat/vs-matte/service/background"
	"github.com/khaledhikmat/vs-matte/service/config"
	"github.com/khaledhikmat/vs-matte/service/data"
	"github.com/khaledhikmat/vs-matte/service/storage"
)

// FrameData carries one RGB frame through the pipeline. Once a frame leaves the
// matter it is shared by every sink and must be treated as read-only.
type FrameData struct {
	View      *frame.View
	Seq       int
	Timestamp time.Time
}

type ServicesFactory struct {
	CfgSvc        config.IService
	DataSvc       data.IService
	StorageSvc    storage.IService
	BackgroundSvc background.IService
	Board         *StatsBoard
}

// Signature of sink function. A sink consumes frames until its channel is closed.
type Sink func(canx context.Context, svcs ServicesFactory, source model.Source, errorStream chan interface{}, statsStream chan interface{}) chan FrameData
