package sim

import (
	"github.com/pkg/errors"
)

// ErrInvalidArgument is wrapped by every error returned for a violated caller precondition,
// such as a job that is already queued or time running backwards.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidState is wrapped by the value of every panic raised for a broken internal invariant.
// A simulation that reports it is corrupt and cannot continue.
var ErrInvalidState = errors.New("invalid state")

func invalidArgument(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// PanicInvalidState panics with an ErrInvalidState-wrapping error. Code layered on top of
// Queue (composites, disciplines) uses it for its own invariants.
func PanicInvalidState(format string, args ...any) {
	panic(errors.Wrapf(ErrInvalidState, format, args...))
}

func invalidState(format string, args ...any) {
	PanicInvalidState(format, args...)
}

// IsInvalidState reports whether v, typically a recovered panic value, signals ErrInvalidState.
func IsInvalidState(v any) bool {
	err, ok := v.(error)
	return ok && errors.Is(err, ErrInvalidState)
}
