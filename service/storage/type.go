package storage

import "github.com/khaledhikmat/vs-matte/frame"

type IService interface {
	// StoreFrame persists an RGB frame and returns where it went.
	StoreFrame(v *frame.View) (string, error)
}
