package dpt

import "errors"

// Domain-specific errors for DPT operations.
var (
	// ErrUnknownDPT is returned for identifiers outside the supported set.
	ErrUnknownDPT = errors.New("dpt: unknown datapoint type")

	// ErrDecodingFailed is returned when a payload does not fit its DPT.
	ErrDecodingFailed = errors.New("dpt: decoding failed")

	// ErrEncodingFailed is returned when a value cannot be encoded.
	ErrEncodingFailed = errors.New("dpt: encoding failed")
)
