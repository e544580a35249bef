package domain

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindParse ErrorKind = iota + 1
	KindCompute
	KindTransfer
	KindInvalidSelection
	KindProbeInProgress
)

func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindCompute:
		return "compute"
	case KindTransfer:
		return "transfer"
	case KindInvalidSelection:
		return "invalid selection"
	case KindProbeInProgress:
		return "probe in progress"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by the sampler and the prober.
// errors.Is matches any *Error of the same Kind, so callers can compare
// against the Err* sentinels below.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

var (
	ErrParse            = &Error{Kind: KindParse}
	ErrCompute          = &Error{Kind: KindCompute}
	ErrTransfer         = &Error{Kind: KindTransfer}
	ErrInvalidSelection = &Error{Kind: KindInvalidSelection}
	ErrProbeInProgress  = &Error{Kind: KindProbeInProgress}
)

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
