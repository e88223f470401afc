package knxip

import (
	"encoding/binary"
	"fmt"

	"github.com/p0l0/xknx/internal/knxip/cemi"
)

// RoutingIndication carries a cEMI frame over routing multicast.
//
// CEMI is nil when the decoded frame was not a supported L_Data frame.
type RoutingIndication struct {
	CEMI *cemi.Frame
}

// NewRoutingIndication builds a routing indication around frame.
func NewRoutingIndication(frame cemi.Frame) *RoutingIndication {
	return &RoutingIndication{CEMI: &frame}
}

// ServiceType implements Body.
func (*RoutingIndication) ServiceType() ServiceType { return ServiceRoutingIndication }

// CalculatedLength implements Body.
func (r *RoutingIndication) CalculatedLength() int { return embeddedLength(r.CEMI) }

func (r *RoutingIndication) decodeKNX(data []byte, onUnsupported func(*cemi.UnsupportedError)) (int, error) {
	frame, n, err := decodeEmbedded(data, onUnsupported)
	if err != nil {
		return 0, err
	}
	r.CEMI = frame
	return n, nil
}

func (r *RoutingIndication) appendKNX(dst []byte) ([]byte, error) {
	return appendEmbedded(dst, ServiceRoutingIndication, r.CEMI)
}

// routingLostLength is length, device state, lost message count(2).
const routingLostLength = 4

// RoutingLostMessage reports how many routing indications a router dropped
// because its queue overflowed.
//
// Wire format:
//
//	Byte 0:   Structure length (0x04)
//	Byte 1:   Device state
//	Byte 2-3: Number of lost messages (big-endian)
type RoutingLostMessage struct {
	DeviceState  uint8
	LostMessages uint16
}

// ServiceType implements Body.
func (*RoutingLostMessage) ServiceType() ServiceType { return ServiceRoutingLostMessage }

// CalculatedLength implements Body.
func (*RoutingLostMessage) CalculatedLength() int { return routingLostLength }

func (m *RoutingLostMessage) decodeKNX(data []byte, _ func(*cemi.UnsupportedError)) (int, error) {
	if len(data) < routingLostLength {
		return 0, fmt.Errorf("%w: routing lost message needs %d bytes, have %d", ErrMalformedBody, routingLostLength, len(data))
	}
	if data[0] != routingLostLength {
		return 0, fmt.Errorf("%w: routing lost length byte %d, want %d", ErrMalformedBody, data[0], routingLostLength)
	}
	m.DeviceState = data[1]
	m.LostMessages = binary.BigEndian.Uint16(data[2:4])
	return routingLostLength, nil
}

func (m *RoutingLostMessage) appendKNX(dst []byte) ([]byte, error) {
	dst = append(dst, routingLostLength, m.DeviceState)
	return binary.BigEndian.AppendUint16(dst, m.LostMessages), nil
}
