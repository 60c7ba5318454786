// Package bridgeerrors defines the error kinds shared across the relay
// engine so callers can distinguish a transport failure from a logic
// failure without string matching.
package bridgeerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// KindTransport covers RPC transport failures: connection refused,
	// malformed JSON-RPC response, unexpected nil result.
	KindTransport Kind = iota
	// KindTimeout covers a call or a job step exceeding its deadline.
	KindTimeout
	// KindDecode covers a malformed on-chain log, message, or signature.
	KindDecode
	// KindConfigIO covers a missing or malformed config/checkpoint file.
	KindConfigIO
	// KindLogic covers a violated protocol invariant (unexpected
	// authority, stale checkpoint, etc).
	KindLogic
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindDecode:
		return "decode"
	case KindConfigIO:
		return "config_io"
	case KindLogic:
		return "logic"
	default:
		return "unknown"
	}
}

// Error wraps a cause with a Kind so the top-level caller can log it and
// pick an exit code without re-parsing the message text.
type Error struct {
	Kind  Kind
	msg   string
	cause error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, msg: msg, cause: errors.WithStack(cause)}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf extracts the Kind of err if it (or something it wraps) is a
// *Error, otherwise returns KindLogic as the conservative default.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindLogic
}
