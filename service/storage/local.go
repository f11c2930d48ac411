package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"gocv.io/x/gocv"

	"github.com/khaledhikmat/vs-matte/frame"
	"github.com/khaledhikmat/vs-matte/frame/cvframe"
)

type localService struct {
	folder string
}

// NewLocal writes PNG snapshots into folder. File names are KSUIDs so they sort by time.
func NewLocal(folder string) IService {
	return &localService{
		folder: folder,
	}
}

func (svc *localService) StoreFrame(v *frame.View) (string, error) {
	if err := os.MkdirAll(svc.folder, 0755); err != nil {
		return "", err
	}

	mat, err := cvframe.ToMat(v)
	if err != nil {
		return "", err
	}
	defer mat.Close()

	fn := filepath.Join(svc.folder, fmt.Sprintf("%s.png", ksuid.New().String()))
	if ok := gocv.IMWrite(fn, mat); !ok {
		return "", fmt.Errorf("error writing snapshot %s", fn)
	}

	return fn, nil
}
