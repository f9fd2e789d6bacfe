package server

import (
	"errors"
	"fmt"
)

// ErrServerClosed is returned by Serve once its listener has been closed.
var ErrServerClosed = errors.New("server: listener closed")

// TransportOp names the socket operation a TransportError came from.
type TransportOp int

const (
	OpAccept TransportOp = iota
	OpRead
	OpWrite
	OpShutdown
)

func (op TransportOp) String() string {
	switch op {
	case OpAccept:
		return "accept"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// TransportError is a connection-scoped socket failure. It is logged and
// counted, never turned into a response.
type TransportError struct {
	Op  TransportOp
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "transport " + e.Op.String() + " failed"
	}
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
