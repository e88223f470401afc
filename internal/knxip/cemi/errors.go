package cemi

import (
	"errors"
	"fmt"
)

// Domain errors for the cEMI codec.
var (
	// ErrUnsupportedMessage is wrapped by every *UnsupportedError.
	// The enclosing frame is still usable when this is returned.
	ErrUnsupportedMessage = errors.New("cemi: unsupported message")

	// ErrMalformed is returned when a supported frame has inconsistent
	// length fields.
	ErrMalformed = errors.New("cemi: malformed frame")

	// ErrInvalidField is returned when a Frame holds a value that cannot be
	// represented on the wire.
	ErrInvalidField = errors.New("cemi: invalid field value")

	// ErrInvalidAddress is returned when an address string cannot be parsed.
	ErrInvalidAddress = errors.New("cemi: invalid address")
)

// UnsupportedError reports a cEMI frame the codec does not handle.
//
// Code is the offending message code. Reason says which check failed
// (unknown code, frame too short, unsupported APCI).
type UnsupportedError struct {
	Code   MessageCode
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("cemi: unsupported message %s: %s", e.Code, e.Reason)
}

// Unwrap allows errors.Is(err, ErrUnsupportedMessage).
func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupportedMessage
}
