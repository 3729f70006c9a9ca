package gzidx

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code taxonomises every distinct failure mode this package can surface.
type Code int

const (
	// Params reports a nil, out-of-range, or otherwise inconsistent argument.
	Params Code = iota
	// Memory reports an allocation failure.
	Memory
	// Corrupted reports a failed invariant, an Index stuck in Invalid state,
	// or a persisted index file that failed a format check.
	Corrupted
	// StreamRead reports the bound ByteStream failing or ending early on a read.
	StreamRead
	// StreamWrite reports the bound ByteStream failing on a write.
	StreamWrite
	// StreamSeek reports the bound ByteStream failing to reposition.
	StreamSeek
	// StreamEof reports the bound ByteStream ending before an operation could
	// complete (e.g. a seek target past the end of the stream).
	StreamEof
	// InvalidOp reports an operation that is meaningful in principle but not
	// in the Index's current state.
	InvalidOp
	// NotFound reports a lookup, usually in the CheckpointStore, that found
	// nothing.
	NotFound
	// Overflow reports a persisted integer that does not fit its receiving type.
	Overflow
	// NotImplemented reports a documented but unbuilt feature.
	NotImplemented
	// Zlib passes through an error from the inflate engine.
	Zlib
	// Callback passes through a non-nil return from a caller-supplied boundary
	// callback.
	Callback
)

func (c Code) String() string {
	switch c {
	case Params:
		return "Params"
	case Memory:
		return "Memory"
	case Corrupted:
		return "Corrupted"
	case StreamRead:
		return "StreamRead"
	case StreamWrite:
		return "StreamWrite"
	case StreamSeek:
		return "StreamSeek"
	case StreamEof:
		return "StreamEof"
	case InvalidOp:
		return "InvalidOp"
	case NotFound:
		return "NotFound"
	case Overflow:
		return "Overflow"
	case NotImplemented:
		return "NotImplemented"
	case Zlib:
		return "Zlib"
	case Callback:
		return "Callback"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error is the single error type every public operation in this package
// returns. Callers that care about the taxonomy should switch on Code();
// callers that only care about the underlying cause can still unwrap it.
type Error struct {
	code  Code
	msg   string
	cause error
}

func newErr(code Code, msg string) error {
	return &Error{code: code, msg: msg}
}

func wrapErr(code Code, cause error, msg string) error {
	if cause == nil {
		return newErr(code, msg)
	}
	return &Error{code: code, msg: msg, cause: errors.Wrap(cause, msg)}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("gzidx: %s: %s", e.code, e.cause.Error())
	}
	return fmt.Sprintf("gzidx: %s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf reports the taxonomy code of err, or false if err is not one of
// ours.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.code, true
	}
	return 0, false
}
