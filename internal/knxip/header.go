package knxip

import (
	"encoding/binary"
	"fmt"
)

// Header constants.
const (
	// HeaderLength is the fixed size of the KNXnet/IP header.
	HeaderLength = 6

	// ProtocolVersion is KNXnet/IP version 1.0.
	ProtocolVersion = 0x10

	// maxFrameLength is the largest value the 2-byte total length can hold.
	maxFrameLength = 0xFFFF
)

// Header is the 6-byte preamble of every KNXnet/IP frame.
//
// Wire format:
//
//	Byte 0:   Header length (always 0x06)
//	Byte 1:   Protocol version (0x10)
//	Byte 2-3: Service type (big-endian)
//	Byte 4-5: Total frame length including this header (big-endian)
//
// TotalLength is what a stream transport needs to split frames.
type Header struct {
	ServiceType ServiceType
	TotalLength uint16
}

// DecodeHeader parses the header at the start of data.
//
// The service type is returned as-is; whether it maps to a body is checked
// by Decode.
//
// Returns:
//   - Header: Parsed header
//   - error: ErrMalformedHeader if data is short or the constants are wrong
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderLength {
		return Header{}, fmt.Errorf("%w: %d bytes, need %d", ErrMalformedHeader, len(data), HeaderLength)
	}
	if data[0] != HeaderLength {
		return Header{}, fmt.Errorf("%w: header length %d, want %d", ErrMalformedHeader, data[0], HeaderLength)
	}
	if data[1] != ProtocolVersion {
		return Header{}, fmt.Errorf("%w: protocol version 0x%02X not supported", ErrMalformedHeader, data[1])
	}

	h := Header{
		ServiceType: ServiceType(binary.BigEndian.Uint16(data[2:4])),
		TotalLength: binary.BigEndian.Uint16(data[4:6]),
	}
	if h.TotalLength < HeaderLength {
		return Header{}, fmt.Errorf("%w: total length %d shorter than header", ErrMalformedHeader, h.TotalLength)
	}
	return h, nil
}

// BodyLength returns the number of body bytes announced by the header.
func (h Header) BodyLength() int {
	return int(h.TotalLength) - HeaderLength
}

// AppendKNX appends the 6-byte wire encoding of h to dst.
func (h Header) AppendKNX(dst []byte) []byte {
	dst = append(dst, HeaderLength, ProtocolVersion)
	dst = binary.BigEndian.AppendUint16(dst, uint16(h.ServiceType))
	return binary.BigEndian.AppendUint16(dst, h.TotalLength)
}

// newHeader returns the header for a body of the given length.
func newHeader(st ServiceType, bodyLength int) (Header, error) {
	total := HeaderLength + bodyLength
	if total > maxFrameLength {
		return Header{}, fmt.Errorf("%w: frame length %d exceeds %d", ErrInvalidField, total, maxFrameLength)
	}
	return Header{ServiceType: st, TotalLength: uint16(total)}, nil //nolint:gosec // bounded above
}
