package api

import (
	"errors"
	"fmt"
)

// SocketError reports a transport-level failure while talking to the
// identity provider. It is always propagated to the caller of a blocking
// operation and never swallowed; retry policy belongs to the caller.
type SocketError struct {
	Op  string // the operation that failed, e.g. "exchange code grant"
	Err error  // the underlying transport error
}

// NewSocketError wraps err as a SocketError for the named operation.
func NewSocketError(op string, err error) *SocketError {
	return &SocketError{Op: op, Err: err}
}

func (e *SocketError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: socket error", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SocketError) Unwrap() error {
	return e.Err
}

// IsSocketError reports whether any error in err's chain is a SocketError.
func IsSocketError(err error) bool {
	var se *SocketError
	return errors.As(err, &se)
}
