package knxip

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// HPAI constants.
const (
	// hpaiLength is the fixed structure length of an HPAI.
	hpaiLength = 8

	// protocolUDPv4 is the host protocol code for UDP over IPv4.
	protocolUDPv4 = 0x01
)

// HPAI is a Host Protocol Address Information block: the endpoint a peer
// should send control or data frames to.
//
// Wire format:
//
//	Byte 0:   Structure length (0x08)
//	Byte 1:   Host protocol (0x01 = UDP/IPv4)
//	Byte 2-5: IPv4 address
//	Byte 6-7: Port (big-endian)
//
// The host protocol is always written as UDP/IPv4 and is not stored.
// HPAI values are comparable with ==.
type HPAI struct {
	IP   netip.Addr
	Port uint16
}

// RouteBack is the 0.0.0.0:0 endpoint used by clients behind NAT to ask the
// server to reply to the datagram's source address.
var RouteBack = HPAI{IP: netip.IPv4Unspecified()}

// ParseHPAI parses an "ip:port" string into an HPAI.
//
// Returns:
//   - HPAI: Parsed endpoint
//   - error: ErrInvalidField if the string is not an IPv4 address and port
func ParseHPAI(s string) (HPAI, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return HPAI{}, fmt.Errorf("%w: %w", ErrInvalidField, err)
	}
	addr := ap.Addr().Unmap()
	if !addr.Is4() {
		return HPAI{}, fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidField, s)
	}
	return HPAI{IP: addr, Port: ap.Port()}, nil
}

// DecodeHPAI parses an HPAI from the start of data.
//
// Returns:
//   - HPAI: Parsed endpoint
//   - int: Number of bytes consumed (always 8 on success)
//   - error: ErrMalformedBody if data is short or the length byte is not 8
func DecodeHPAI(data []byte) (HPAI, int, error) {
	if len(data) < hpaiLength {
		return HPAI{}, 0, fmt.Errorf("%w: HPAI needs %d bytes, have %d", ErrMalformedBody, hpaiLength, len(data))
	}
	if data[0] != hpaiLength {
		return HPAI{}, 0, fmt.Errorf("%w: HPAI length byte %d, want %d", ErrMalformedBody, data[0], hpaiLength)
	}

	return HPAI{
		IP:   netip.AddrFrom4([4]byte(data[2:6])),
		Port: binary.BigEndian.Uint16(data[6:8]),
	}, hpaiLength, nil
}

// AppendKNX appends the 8-byte wire encoding of h to dst.
//
// Returns:
//   - []byte: Extended buffer
//   - error: ErrInvalidField if IP is not an IPv4 address
func (h HPAI) AppendKNX(dst []byte) ([]byte, error) {
	ip := h.IP.Unmap()
	if !ip.Is4() {
		return dst, fmt.Errorf("%w: HPAI address %v is not IPv4", ErrInvalidField, h.IP)
	}
	ip4 := ip.As4()

	dst = append(dst, hpaiLength, protocolUDPv4)
	dst = append(dst, ip4[:]...)
	return binary.BigEndian.AppendUint16(dst, h.Port), nil
}

// AddrPort returns the endpoint as a netip.AddrPort.
func (h HPAI) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(h.IP, h.Port)
}

// String returns the endpoint in "ip:port" form.
func (h HPAI) String() string {
	return h.AddrPort().String()
}
