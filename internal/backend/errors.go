package backend

import (
	"errors"
	"fmt"
)

// ErrTransport indicates the backend could not be reached at all: network
// fault, timeout, or an open circuit breaker.
var ErrTransport = errors.New("backend unreachable")

// Error is a failed backend operation. StatusCode is zero for transport
// faults; otherwise it carries the non-2xx HTTP status.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func transportError(op string, err error) *Error {
	return &Error{
		Op:      op,
		Message: err.Error(),
		Err:     ErrTransport,
	}
}

func statusError(op string, statusCode int, body []byte) *Error {
	msg := string(body)
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return &Error{
		Op:         op,
		StatusCode: statusCode,
		Message:    msg,
	}
}
