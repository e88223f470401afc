package knxip

import (
	"fmt"

	"github.com/p0l0/xknx/internal/knxip/cemi"
)

// connectionHeaderLength is the fixed size of the tunnelling connection header.
const connectionHeaderLength = 4

// ConnectionHeader prefixes every tunnelling request and ack.
//
// Wire format:
//
//	Byte 0: Structure length (0x04)
//	Byte 1: Communication channel ID
//	Byte 2: Sequence counter
//	Byte 3: Reserved (requests) or status (acks)
type ConnectionHeader struct {
	ChannelID uint8
	Sequence  uint8
}

func decodeConnectionHeader(data []byte) (ConnectionHeader, uint8, error) {
	if len(data) < connectionHeaderLength {
		return ConnectionHeader{}, 0, fmt.Errorf("%w: %d bytes, need %d", ErrMalformedConnectionHeader, len(data), connectionHeaderLength)
	}
	if data[0] != connectionHeaderLength {
		return ConnectionHeader{}, 0, fmt.Errorf("%w: length byte %d, want %d", ErrMalformedConnectionHeader, data[0], connectionHeaderLength)
	}
	return ConnectionHeader{ChannelID: data[1], Sequence: data[2]}, data[3], nil
}

func (h ConnectionHeader) append(dst []byte, last uint8) []byte {
	return append(dst, connectionHeaderLength, h.ChannelID, h.Sequence, last)
}

// TunnellingRequest carries a cEMI frame over an open tunnel connection.
//
// CEMI is nil when the decoded frame was not a supported L_Data frame; the
// connection header is still valid and the request should be acked.
type TunnellingRequest struct {
	ConnectionHeader
	CEMI *cemi.Frame
}

// NewTunnellingRequest builds a tunnelling request for channel and sequence.
func NewTunnellingRequest(channelID, sequence uint8, frame cemi.Frame) *TunnellingRequest {
	return &TunnellingRequest{
		ConnectionHeader: ConnectionHeader{ChannelID: channelID, Sequence: sequence},
		CEMI:             &frame,
	}
}

// ServiceType implements Body.
func (*TunnellingRequest) ServiceType() ServiceType { return ServiceTunnellingRequest }

// CalculatedLength implements Body.
func (r *TunnellingRequest) CalculatedLength() int {
	return connectionHeaderLength + embeddedLength(r.CEMI)
}

func (r *TunnellingRequest) decodeKNX(data []byte, onUnsupported func(*cemi.UnsupportedError)) (int, error) {
	header, _, err := decodeConnectionHeader(data)
	if err != nil {
		return 0, err
	}
	r.ConnectionHeader = header

	frame, n, err := decodeEmbedded(data[connectionHeaderLength:], onUnsupported)
	if err != nil {
		return 0, err
	}
	r.CEMI = frame
	return connectionHeaderLength + n, nil
}

func (r *TunnellingRequest) appendKNX(dst []byte) ([]byte, error) {
	return appendEmbedded(r.append(dst, 0x00), ServiceTunnellingRequest, r.CEMI)
}

// TunnellingAck confirms receipt of a TunnellingRequest with the same
// channel and sequence.
type TunnellingAck struct {
	ConnectionHeader
	Status Status
}

// ServiceType implements Body.
func (*TunnellingAck) ServiceType() ServiceType { return ServiceTunnellingAck }

// CalculatedLength implements Body.
func (*TunnellingAck) CalculatedLength() int { return connectionHeaderLength }

func (a *TunnellingAck) decodeKNX(data []byte, _ func(*cemi.UnsupportedError)) (int, error) {
	header, status, err := decodeConnectionHeader(data)
	if err != nil {
		return 0, err
	}
	a.ConnectionHeader = header
	a.Status = Status(status)
	return connectionHeaderLength, nil
}

func (a *TunnellingAck) appendKNX(dst []byte) ([]byte, error) {
	return a.append(dst, byte(a.Status)), nil
}
