package ingest

import (
	"errors"
	"fmt"
)

// FailureKind classifies ingest failures.
type FailureKind string

const (
	// KindResolution means the content location or display name could not be determined.
	KindResolution FailureKind = "resolution"

	// KindIO means directory creation, stream open, read, write or close failed.
	KindIO FailureKind = "io"
)

var (
	// ErrUnresolvable is returned by openers when a reference has no readable location.
	ErrUnresolvable = errors.New("content location could not be resolved")

	// ErrNoDisplayName is used when neither the resolved path nor the path hint yields a name.
	ErrNoDisplayName = errors.New("no display name for shared content")
)

// Error is the failure carried by a Result. Op names the step that failed.
type Error struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ingest %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or "" when err is not an *Error.
func KindOf(err error) FailureKind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

func resolutionError(op string, err error) *Error {
	return &Error{Kind: KindResolution, Op: op, Err: err}
}

func ioError(op string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Err: err}
}
