// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// Error categories. Every error returned by the mixing core matches
	// exactly one of these through errors.Is.
	ErrFileOpen      = errors.New("file open error")
	ErrFileRead      = errors.New("file read error")
	ErrFileSeek      = errors.New("file seek error")
	ErrOutOfMemory   = errors.New("out of memory")
	ErrInvalidArg    = errors.New("invalid argument")
	ErrInvalidEnum   = errors.New("invalid enum value")
	ErrRuntime       = errors.New("runtime error")
	ErrUnsupported   = errors.New("unsupported")
	ErrLogic         = errors.New("logic error")
	ErrInvalidHandle = errors.New("invalid handle")
)

// Error ties a failure to one of the category sentinels above while
// keeping the underlying cause reachable.
type Error struct {
	Code error  // one of the Err* categories
	Op   string // operation that failed, e.g. "decoder.Open"
	Err  error  // cause, may be nil
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Code, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Code, e.Err)
	}
	return e.Code.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Err}
}

// Errorf builds an *Error of category code with a formatted cause.
// The cause may wrap other errors with %w.
func Errorf(code error, op string, format string, args ...any) error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

// WrapError categorizes err. A nil err yields nil.
func WrapError(code error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}
