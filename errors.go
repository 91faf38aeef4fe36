package reactor

import "errors"

// ErrorKind classifies the terminal errors an operator can surface to its
// downstream subscriber, per the propagation policy of the signal protocol.
type ErrorKind int8

const (
	// KindProtocolViolation marks a negative or zero request, a double
	// terminal signal, or an onNext delivered after a terminal signal.
	KindProtocolViolation ErrorKind = iota
	// KindIllegalArgument marks a construction-time or call-time argument
	// that violates a documented precondition.
	KindIllegalArgument
	// KindUserError marks an exception raised by a user-supplied function
	// running inside an operator.
	KindUserError
	// KindTimeout marks the absence of activity within a configured bound.
	KindTimeout
	// KindOverflow marks a dispatcher queue that is full under the
	// configured backpressure policy.
	KindOverflow
	// KindFatal marks an internal invariant violation. Fatal errors are
	// never swallowed by ignoreErrors or when().
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindProtocolViolation:
		return "protocol_violation"
	case KindIllegalArgument:
		return "illegal_argument"
	case KindUserError:
		return "user_error"
	case KindTimeout:
		return "timeout"
	case KindOverflow:
		return "overflow"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Sentinel errors identifying each ErrorKind. Use errors.Is against these,
// or errors.As against *SignalError to recover the ErrorKind and cause.
var (
	ErrProtocolViolation = errors.New("reactor: protocol violation")
	ErrIllegalArgument   = errors.New("reactor: illegal argument")
	ErrUserError         = errors.New("reactor: user function failed")
	ErrTimeout           = errors.New("reactor: timeout")
	ErrOverflow          = errors.New("reactor: dispatcher overflow")
	ErrFatal             = errors.New("reactor: fatal invariant violation")
)

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindProtocolViolation:
		return ErrProtocolViolation
	case KindIllegalArgument:
		return ErrIllegalArgument
	case KindUserError:
		return ErrUserError
	case KindTimeout:
		return ErrTimeout
	case KindOverflow:
		return ErrOverflow
	case KindFatal:
		return ErrFatal
	default:
		return ErrFatal
	}
}

// SignalError is the error type carried by an Error signal. It wraps the
// underlying cause (a user function's panic/error, or nil for protocol-level
// failures) and classifies it with an ErrorKind for programmatic handling.
type SignalError struct {
	Kind  ErrorKind
	Cause error
}

// NewSignalError returns a SignalError of the given kind wrapping cause.
// If cause is nil, the sentinel error for kind is used as the cause.
func NewSignalError(kind ErrorKind, cause error) *SignalError {
	if cause == nil {
		cause = sentinelFor(kind)
	}
	return &SignalError{Kind: kind, Cause: cause}
}

func (e *SignalError) Error() string {
	if e.Cause == nil || e.Cause == sentinelFor(e.Kind) {
		return sentinelFor(e.Kind).Error()
	}
	return sentinelFor(e.Kind).Error() + ": " + e.Cause.Error()
}

func (e *SignalError) Unwrap() []error {
	return []error{sentinelFor(e.Kind), e.Cause}
}

// IsKind reports whether err is a *SignalError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *SignalError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
