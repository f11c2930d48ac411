package watcher

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-matte/service/lgr"
)

type fileState struct {
	modTime time.Time
	size    int64
}

type timedService struct {
	mu         sync.Mutex
	CanxCtx    context.Context
	SubsCtx    context.Context
	SubsCancel context.CancelFunc
	Changes    chan string
	Path       string
	Period     time.Duration
}

// NewTimed polls path every period and delivers the path on the subscribed
// channel whenever the file's modification time or size changes.
func NewTimed(canxCtx context.Context, path string, period time.Duration) IService {
	return &timedService{
		CanxCtx: canxCtx,
		Path:    path,
		Period:  period,
	}
}

func (svc *timedService) Subscribe() (<-chan string, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.SubsCtx != nil {
		return nil, xerrors.New("watcher timed service. already subscribed. Unsubscribe first")
	}

	if svc.Period <= 0 {
		return nil, xerrors.Errorf("watcher timed service. invalid period %v", svc.Period)
	}

	// Regardless of how many times we subscribe/unsubscribe, there is only one channel
	if svc.Changes == nil {
		svc.Changes = make(chan string)
	}

	subsCtx, subsCancel := context.WithCancel(svc.CanxCtx)
	svc.SubsCtx = subsCtx
	svc.SubsCancel = subsCancel

	last, _ := stat(svc.Path)
	changes := svc.Changes

	go func() {
		ticker := time.NewTicker(svc.Period)
		defer ticker.Stop()

		for {
			select {
			case <-subsCtx.Done():
				lgr.Logger.Info("watcher timed service subscription cancelled", slog.String("path", svc.Path))
				return

			case <-ticker.C:
				current, err := stat(svc.Path)
				if err != nil || current == last {
					continue
				}
				last = current

				select {
				case <-subsCtx.Done():
					return
				case changes <- svc.Path:
				}
			}
		}
	}()

	return changes, nil
}

func (svc *timedService) Unsubscribe() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.SubsCtx == nil {
		return xerrors.New("Not subscribed yet. Subscribe first")
	}

	svc.cleanup()
	return nil
}

func (svc *timedService) Finalize() {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.cleanup()
	if svc.Changes != nil {
		close(svc.Changes)
		svc.Changes = nil
	}
}

func (svc *timedService) cleanup() {
	if svc.SubsCancel != nil {
		svc.SubsCancel()
		svc.SubsCtx = nil
		svc.SubsCancel = nil
	}
}

func stat(path string) (fileState, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, err
	}
	return fileState{modTime: info.ModTime(), size: info.Size()}, nil
}
