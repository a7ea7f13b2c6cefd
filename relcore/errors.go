package relcore

import "errors"

// ErrorKind is the taxonomy of failure modes described in spec.md §7.
type ErrorKind int

const (
	TransactionAbortedError ErrorKind = iota
	DeadlockError
	DbLogicError
	IoError
	NoSuchElementError
	IllegalArgumentError
)

func (k ErrorKind) String() string {
	switch k {
	case TransactionAbortedError:
		return "TransactionAborted"
	case DeadlockError:
		return "Deadlock"
	case DbLogicError:
		return "DbLogicError"
	case IoError:
		return "IoError"
	case NoSuchElementError:
		return "NoSuchElement"
	case IllegalArgumentError:
		return "IllegalArgument"
	}
	return "Unknown"
}

// RelError is the single concrete error type relcore returns. It pairs a
// coarse Kind (for programmatic handling, e.g. errors.Is against the
// sentinels below) with a human-readable message and, optionally, an
// underlying cause.
type RelError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e RelError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e RelError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ErrDeadlock) etc. to match on Kind, ignoring Msg
// and Err.
func (e RelError) Is(target error) bool {
	t, ok := target.(RelError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind ErrorKind, msg string) error {
	return RelError{Kind: kind, Msg: msg}
}

func wrapErr(kind ErrorKind, msg string, cause error) error {
	return RelError{Kind: kind, Msg: msg, Err: cause}
}

// Sentinels for errors.Is matching. Only Kind is compared (see RelError.Is),
// so the Msg text here plays no part in matching; sentinels returned
// directly still print it through Error().
var (
	ErrTransactionAborted = RelError{Kind: TransactionAbortedError}
	ErrDeadlock           = RelError{Kind: DeadlockError}
	ErrBufferFull         = RelError{Kind: DbLogicError, Msg: "buffer full"}
	ErrNoSpace            = RelError{Kind: DbLogicError, Msg: "no space"}
	ErrSchemaMismatch     = RelError{Kind: DbLogicError, Msg: "schema mismatch"}
	ErrNotFound           = RelError{Kind: DbLogicError, Msg: "not found"}
	ErrOperatorMisuse     = RelError{Kind: DbLogicError, Msg: "operator misuse"}
	ErrNoSuchElement      = RelError{Kind: NoSuchElementError}
	ErrIllegalArgument    = RelError{Kind: IllegalArgumentError}
	ErrIO                 = RelError{Kind: IoError}
)

// IsDeadlock reports whether err (or something it wraps) is a deadlock
// abort, using the generic Kind comparison since Deadlock carries no fixed
// Msg.
func IsDeadlock(err error) bool {
	var re RelError
	return errors.As(err, &re) && re.Kind == DeadlockError
}

// IsTransactionAborted reports whether err signals that the caller's
// transaction must be rolled back.
func IsTransactionAborted(err error) bool {
	var re RelError
	return errors.As(err, &re) && re.Kind == TransactionAbortedError
}
