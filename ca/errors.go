package ca

import (
	"errors"
	"fmt"
)

// Sentinel causes. Wrap these with LocalProtocolError, RemoteProtocolError
// or CaprotoValueError so callers can both errors.Is-match the cause and
// read a human message: one sentinel per distinct wire or argument
// violation.
var (
	ErrShortBuffer         = errors.New("buffer too short for header or payload")
	ErrUnknownCommand      = errors.New("unknown command code")
	ErrBadElementSize      = errors.New("payload size is not a multiple of its declared element width")
	ErrUnknownRole         = errors.New("role must be ca.CLIENT or ca.SERVER")
	ErrUnknownDBRType      = errors.New("unknown DBR data type")
	ErrNegativeCount       = errors.New("data count must not be negative")
	ErrExtendedRequired    = errors.New("payload size or data count exceeds the regular header range")
	ErrExtendedUnsupported = errors.New("extended header requires protocol version 13 or newer")
	ErrNameTooLong         = errors.New("channel name exceeds 40 bytes")
	ErrWrongRoleForCommand = errors.New("command is not legal for the sender's role")
	ErrWrongState          = errors.New("command is not legal in the current state")
	ErrUnknownChannel      = errors.New("channel id is not known on this circuit")
	ErrUnknownSubscription = errors.New("subscription id is not known on this circuit")
	ErrChannelClosed       = errors.New("channel is closed")
)

// LocalProtocolError is raised when the caller attempts an action illegal
// for our role or current state. The peer is left unchanged.
type LocalProtocolError struct {
	Msg string
	Err error
}

func (e *LocalProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("local protocol error: %s: %v", e.Msg, e.Err)
	}
	return "local protocol error: " + e.Msg
}

// Unwrap exposes the sentinel cause for errors.Is/errors.As.
func (e *LocalProtocolError) Unwrap() error { return e.Err }

// NewLocalProtocolError builds a LocalProtocolError wrapping cause (may be nil).
func NewLocalProtocolError(msg string, cause error) *LocalProtocolError {
	return &LocalProtocolError{Msg: msg, Err: cause}
}

// RemoteProtocolError is raised when bytes received from the wire violate
// framing or the peer's state machine. Observing one puts the peer into
// DISCONNECTED; further transport use is undefined.
type RemoteProtocolError struct {
	Msg string
	Err error
}

func (e *RemoteProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote protocol error: %s: %v", e.Msg, e.Err)
	}
	return "remote protocol error: " + e.Msg
}

// Unwrap exposes the sentinel cause for errors.Is/errors.As.
func (e *RemoteProtocolError) Unwrap() error { return e.Err }

// NewRemoteProtocolError builds a RemoteProtocolError wrapping cause (may be nil).
func NewRemoteProtocolError(msg string, cause error) *RemoteProtocolError {
	return &RemoteProtocolError{Msg: msg, Err: cause}
}

// CaprotoValueError is raised for caller-supplied illegal arguments, e.g. an
// unknown role or DBR id, independent of any connection state.
type CaprotoValueError struct {
	Msg string
	Err error
}

func (e *CaprotoValueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap exposes the sentinel cause for errors.Is/errors.As.
func (e *CaprotoValueError) Unwrap() error { return e.Err }

// NewCaprotoValueError builds a CaprotoValueError wrapping cause (may be nil).
func NewCaprotoValueError(msg string, cause error) *CaprotoValueError {
	return &CaprotoValueError{Msg: msg, Err: cause}
}

// needData is the concrete type behind NeedData.
type needData struct{}

func (needData) Error() string { return "need more data" }

// NeedData is returned (wrapped as an error) by ReadFromByteStream when
// fewer than a complete frame's worth of bytes are available in the
// stream buffer. It is a sentinel, not a protocol violation: the caller
// should retry once more bytes have arrived, and the input buffer is left
// untouched.
var NeedData error = needData{}
