package bridge

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind (via IsKind or errors.As) rather than on
// error strings. The underlying cause, when there is one, is reachable with
// errors.Is / errors.As through Unwrap.
type Kind string

const (
	KindUnauthorized     Kind = "Unauthorized"
	KindNoDelegation     Kind = "NoDelegation"
	KindNoResolver       Kind = "NoResolver"
	KindForwardingFailed Kind = "ForwardingFailed"
	KindMalformedCall    Kind = "MalformedCall"
	KindInternal         Kind = "Internal"
)

// Error is the bridge's structured error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return "bridge: " + e.Message + ": " + e.Cause.Error()
	}
	return "bridge: " + e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind Kind, msg string, cause error) error {
	if cause == nil {
		return newError(kind, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}
