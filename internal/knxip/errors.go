package knxip

import "errors"

// Domain errors for the KNXnet/IP codec.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformedHeader is returned when the 6-byte frame header is short,
	// has the wrong header length, or an unrecognised protocol version.
	ErrMalformedHeader = errors.New("knxip: malformed header")

	// ErrMalformedBody is returned when a body, HPAI, or CRI block is short
	// or has inconsistent length fields.
	ErrMalformedBody = errors.New("knxip: malformed body")

	// ErrMalformedConnectionHeader is returned when the tunnelling
	// connection header is short or has the wrong length byte.
	ErrMalformedConnectionHeader = errors.New("knxip: malformed connection header")

	// ErrFrameTooShort is returned when the header declares more bytes than
	// the buffer holds.
	ErrFrameTooShort = errors.New("knxip: frame too short")

	// ErrUnknownServiceType is returned when the service type code has no
	// body implementation.
	ErrUnknownServiceType = errors.New("knxip: unknown service type")

	// ErrMissingSubFrame is returned when encoding a routing indication or
	// tunnelling request that has no cEMI frame.
	ErrMissingSubFrame = errors.New("knxip: missing cEMI frame")

	// ErrInvalidField is returned when a frame holds a value that cannot be
	// represented on the wire.
	ErrInvalidField = errors.New("knxip: invalid field value")
)
