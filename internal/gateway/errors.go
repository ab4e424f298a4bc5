package gateway

import (
	"errors"
	"fmt"
)

// RemoteError is a rejection reported by the gateway itself: the HTTP
// exchange succeeded but the decoded response carried a non-zero code.
type RemoteError struct {
	Method  string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("gateway %s rejected: code=%d msg=%s", e.Method, e.Code, e.Message)
}

// TransportError is a network, timeout or decoding failure. The outcome of
// the remote operation is unknown and must never be treated as success.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway %s transport failure: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsRemoteError unwraps err to a RemoteError, or nil.
func AsRemoteError(err error) *RemoteError {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote
	}
	return nil
}

// AsTransportError unwraps err to a TransportError, or nil.
func AsTransportError(err error) *TransportError {
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport
	}
	return nil
}
