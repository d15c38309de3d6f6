package serialport

import "fmt"

// ValidationError reports a locally detected configuration problem.
// No remote call is made when a ValidationError is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NotOpenError reports an I/O attempt on a session that is not open.
// No remote call is made when a NotOpenError is returned.
type NotOpenError struct {
	Path string
}

func (e *NotOpenError) Error() string {
	if e.Path == "" {
		return "serial port is not open"
	}
	return fmt.Sprintf("serial port %s is not open", e.Path)
}

// RemoteError is a failure returned by the bridge daemon. Code and Message
// are passed through unchanged, never reinterpreted. Callers distinguish
// remote from local failures by the presence of a RemoteError in the chain.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}
