package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNoSession = errors.New("no active session")
	ErrDisposed  = errors.New("coordinator disposed")
)

// Kind classifies engine failures.
type Kind int

const (
	// KindSynthesis covers invalid frequencies, durations, volumes and
	// panning configs. Always raised before any backend call.
	KindSynthesis Kind = iota + 1
	// KindBackend wraps a buffer load or voice start/stop failure.
	KindBackend
	// KindInvalidState is an operation the current state does not allow.
	KindInvalidState
	// KindCanceled means the caller's context ended before any side effect.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindSynthesis:
		return "synthesis"
	case KindBackend:
		return "backend"
	case KindInvalidState:
		return "invalid state"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every Coordinator entry point.
type Error struct {
	Kind Kind
	Op   string
	// Partial is true when side effects happened before the failure (and
	// were rolled back). A false Partial means the call was declined
	// untouched and is safe to retry.
	Partial bool
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetrySafe reports whether err was declined before any side effect.
func IsRetrySafe(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return !e.Partial
	}
	return false
}

// KindOf returns the Kind of an engine error, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func declined(op string, kind Kind, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func partial(op string, kind Kind, err error) error {
	return &Error{Kind: kind, Op: op, Partial: true, Err: err}
}
