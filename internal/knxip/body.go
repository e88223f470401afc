package knxip

import (
	"errors"
	"fmt"

	"github.com/p0l0/xknx/internal/knxip/cemi"
)

// Body is the service-specific part of a KNXnet/IP frame.
//
// The set of implementations is closed: each ServiceType maps to exactly
// one pointer type in this package.
type Body interface {
	// ServiceType returns the wire discriminant for this body.
	ServiceType() ServiceType

	// CalculatedLength returns the exact number of bytes the body encodes to.
	CalculatedLength() int

	appendKNX(dst []byte) ([]byte, error)
	decodeKNX(data []byte, onUnsupported func(*cemi.UnsupportedError)) (int, error)
}

// newBody returns an empty body for the service type.
func newBody(st ServiceType) (Body, error) {
	switch st {
	case ServiceSearchRequest:
		return &SearchRequest{}, nil
	case ServiceConnectRequest:
		return &ConnectRequest{}, nil
	case ServiceConnectResponse:
		return &ConnectResponse{}, nil
	case ServiceConnectionStateRequest:
		return &ConnectionStateRequest{}, nil
	case ServiceConnectionStateResponse:
		return &ConnectionStateResponse{}, nil
	case ServiceDisconnectRequest:
		return &DisconnectRequest{}, nil
	case ServiceDisconnectResponse:
		return &DisconnectResponse{}, nil
	case ServiceTunnellingRequest:
		return &TunnellingRequest{}, nil
	case ServiceTunnellingAck:
		return &TunnellingAck{}, nil
	case ServiceRoutingIndication:
		return &RoutingIndication{}, nil
	case ServiceRoutingLostMessage:
		return &RoutingLostMessage{}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%04X", ErrUnknownServiceType, uint16(st))
	}
}

// decodeEmbedded decodes the cEMI frame that fills the rest of a body.
//
// An unsupported cEMI frame is not an error: the result is nil, all of data
// counts as consumed, and onUnsupported (if set) is told why.
func decodeEmbedded(data []byte, onUnsupported func(*cemi.UnsupportedError)) (*cemi.Frame, int, error) {
	frame, n, err := cemi.Decode(data)
	if err == nil {
		return &frame, n, nil
	}

	var unsupported *cemi.UnsupportedError
	if errors.As(err, &unsupported) {
		if onUnsupported != nil {
			onUnsupported(unsupported)
		}
		return nil, len(data), nil
	}
	return nil, 0, fmt.Errorf("%w: %w", ErrMalformedBody, err)
}

// appendEmbedded encodes a required cEMI frame.
func appendEmbedded(dst []byte, st ServiceType, frame *cemi.Frame) ([]byte, error) {
	if frame == nil {
		return dst, fmt.Errorf("%w: %s", ErrMissingSubFrame, st)
	}
	out, err := frame.AppendKNX(dst)
	if err != nil {
		return dst, fmt.Errorf("%w: %w", ErrInvalidField, err)
	}
	return out, nil
}

// embeddedLength is the encoded size of an optional cEMI frame.
func embeddedLength(frame *cemi.Frame) int {
	if frame == nil {
		return 0
	}
	return frame.CalculatedLength()
}
