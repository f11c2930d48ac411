package filter

import (
	"errors"
	"fmt"
)

// Kind classifies a filter failure.
type Kind int

const (
	// KindValidation is a shape, dimension or channel mismatch between the frames.
	KindValidation Kind = iota + 1
	// KindBackend is a failure raised while converting tensors or running inference.
	KindBackend
	// KindLogic is a broken contract between the filter and the loaded model.
	KindLogic
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBackend:
		return "backend"
	case KindLogic:
		return "logic"
	default:
		return "unknown"
	}
}

var (
	ErrValidation = errors.New("frame validation failed")
	ErrBackend    = errors.New("backend failure")
	ErrLogic      = errors.New("backend contract violation")
)

// Error is the only error type returned by filters.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("filter %s: %s failed", e.Op, e.Kind)
	}
	return fmt.Sprintf("filter %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrBackend:
		return e.Kind == KindBackend
	case ErrLogic:
		return e.Kind == KindLogic
	}
	return false
}

// KindOf returns the kind of a filter error, or 0 when err is not one.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

func validationErrorf(op, format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

func backendError(op string, err error) error {
	return &Error{Kind: KindBackend, Op: op, Err: err}
}

func logicErrorf(op, format string, args ...interface{}) error {
	return &Error{Kind: KindLogic, Op: op, Err: fmt.Errorf(format, args...)}
}
