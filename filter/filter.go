// Package filter implements background replacement filters. A filter mutates a
// video frame in place given the background frame that should show through.
package filter

import (
	"fmt"

	"github.com/khaledhikmat/vs-matte/frame"
)

// Filter is implemented by every background replacement algorithm.
//
// Implementations are not safe for concurrent use. Wrap them in a Guarded when more
// than one goroutine can reach the same instance.
type Filter interface {
	// FilterInPlace replaces the background of src. src is left untouched when an
	// error is returned.
	FilterInPlace(src *frame.View, bg *frame.View) error
	// Filter returns a filtered copy of src.
	Filter(src *frame.View, bg *frame.View) (*frame.View, error)
	Close() error
}

const (
	KindNoop    = "noop"
	KindMatting = "matting"
)

// Config selects one of the known filters.
type Config struct {
	Kind    string
	Matting MattingConfig
}

// New builds the filter selected by cfg.Kind.
func New(cfg Config, opts ...Option) (Filter, error) {
	switch cfg.Kind {
	case KindNoop, "":
		return NewNoop(), nil
	case KindMatting:
		m, err := NewMatting(cfg.Matting, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, validationErrorf("new", "unknown filter kind %q", cfg.Kind)
	}
}

// Copy clones src, filters the clone in place and returns it.
func Copy(f Filter, src *frame.View, bg *frame.View) (*frame.View, error) {
	if src == nil {
		return nil, validationErrorf("filter", "no source frame")
	}

	dst := src.Clone()
	if err := f.FilterInPlace(dst, bg); err != nil {
		return nil, err
	}
	return dst, nil
}

// Observer receives the composited frame after a successful call. It must not
// retain the frame.
type Observer func(composite *frame.View)

type options struct {
	observer Observer
}

type Option func(*options)

func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

func validatePair(src *frame.View, bg *frame.View) error {
	if src == nil || bg == nil {
		return validationErrorf("validate", "source and background frames are required")
	}

	if err := src.Validate(); err != nil {
		return validationErrorf("validate", "source frame: %v", err)
	}

	if err := bg.Validate(); err != nil {
		return validationErrorf("validate", "background frame: %v", err)
	}

	if src.Channels != 3 {
		return validationErrorf("validate", "expected a 3-channel source frame, got %s", src)
	}

	if bg.Channels != 3 {
		return validationErrorf("validate", "expected a 3-channel background frame, got %s", bg)
	}

	if src.Width != bg.Width || src.Height != bg.Height {
		return validationErrorf("validate", "camera frame has size %dx%d but background frame has size %dx%d",
			src.Width, src.Height, bg.Width, bg.Height)
	}

	return nil
}

func describe(f Filter) string {
	switch f.(type) {
	case *Noop:
		return KindNoop
	case *Matting:
		return KindMatting
	default:
		return fmt.Sprintf("%T", f)
	}
}
