package cemi

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// Frame size constraints.
const (
	// minFrameLength is code + addil + ctrl(2) + src(2) + dst(2) + npdu_len + tpci/apci(2).
	minFrameLength = 11

	// fixedHeaderLength is the number of octets between the additional info
	// and the second APCI octet.
	fixedHeaderLength = 8

	maxAdditionalInfo = 0xFF

	// maxDataLength keeps NPDU length (data + APCI octet) within one octet.
	maxDataLength = 0xFE
)

// Frame is a decoded L_Data cEMI frame.
//
// The destination is kept as its raw 16-bit value; whether it is a group
// or an individual address is encoded in Flags (FlagDestinationGroup).
//
// Payload layout follows the KNX short/long APDU rule:
//   - Value holds the six data bits packed into the APCI octet
//   - Data holds the octets appended after the APCI octet
//
// A 1-bit group write carries its bit in Value and has no Data; a 2-byte
// float write carries Value 0 and two Data octets.
type Frame struct {
	Code           MessageCode
	AdditionalInfo []byte
	Flags          uint16
	Source         IndividualAddress
	Destination    uint16
	Command        APCI
	Value          uint8
	Data           []byte
}

// NewGroupFrame builds an L_Data frame addressed to a group with DefaultGroupFlags.
//
// Parameters:
//   - code: Message code (LDataReq for outgoing, LDataInd for indications)
//   - src: Sender individual address (0.0.0 lets the interface fill it)
//   - dst: Target group address
//   - cmd: Application service (read, response, or write)
//   - value: Six-bit value for short APDUs (ignored by readers)
//   - data: Octets for long APDUs (nil for short)
func NewGroupFrame(code MessageCode, src IndividualAddress, dst GroupAddress, cmd APCI, value uint8, data []byte) Frame {
	return Frame{
		Code:        code,
		Flags:       DefaultGroupFlags,
		Source:      src,
		Destination: dst.ToUint16(),
		Command:     cmd,
		Value:       value,
		Data:        data,
	}
}

// Decode parses a cEMI frame from the start of data.
//
// Returns:
//   - Frame: Parsed frame (all slices are copies, data may be reused)
//   - int: Number of bytes consumed
//   - error: *UnsupportedError for frames outside the supported set,
//     ErrMalformed if the NPDU length disagrees with the buffer
func Decode(data []byte) (Frame, int, error) {
	if len(data) == 0 {
		return Frame{}, 0, &UnsupportedError{Reason: "empty frame"}
	}

	code := MessageCode(data[0])
	if !code.Supported() {
		return Frame{}, 0, &UnsupportedError{Code: code, Reason: "message code not implemented"}
	}

	if len(data) < minFrameLength {
		// ETS line scans emit L_Data.ind frames that are one octet short.
		return Frame{}, 0, &UnsupportedError{Code: code, Reason: fmt.Sprintf("frame too short (%d bytes)", len(data))}
	}

	addil := int(data[1])
	if len(data) < minFrameLength+addil {
		return Frame{}, 0, &UnsupportedError{Code: code, Reason: fmt.Sprintf("additional info length %d exceeds frame", addil)}
	}

	pos := 2 + addil
	f := Frame{
		Code:        code,
		Flags:       binary.BigEndian.Uint16(data[pos:]),
		Source:      IndividualAddress(binary.BigEndian.Uint16(data[pos+2:])),
		Destination: binary.BigEndian.Uint16(data[pos+4:]),
	}
	if addil > 0 {
		f.AdditionalInfo = slices.Clone(data[2:pos])
	}

	npduLen := int(data[pos+6])
	if npduLen == 0 {
		return Frame{}, 0, &UnsupportedError{Code: code, Reason: "transport layer control frame"}
	}

	tpciAPCI := binary.BigEndian.Uint16(data[pos+7:])
	f.Command = APCI(tpciAPCI & commandMask)
	if !f.Command.Supported() {
		return Frame{}, 0, &UnsupportedError{Code: code, Reason: fmt.Sprintf("APCI not supported: %#06x", tpciAPCI&commandMask)}
	}
	f.Value = uint8(tpciAPCI & valueMask) //nolint:gosec // masked to 6 bits

	// NPDU length counts the octets after TPCI, starting with the APCI octet.
	apduStart := pos + fixedHeaderLength
	end := apduStart + npduLen
	if end > len(data) {
		return Frame{}, 0, fmt.Errorf("%w: NPDU length %d but only %d bytes follow", ErrMalformed, npduLen, len(data)-apduStart)
	}
	if npduLen > 1 {
		f.Data = slices.Clone(data[apduStart+1 : end])
	}

	return f, end, nil
}

// CalculatedLength returns the exact number of bytes AppendKNX writes.
func (f Frame) CalculatedLength() int {
	return minFrameLength + len(f.AdditionalInfo) + len(f.Data)
}

// AppendKNX appends the wire encoding of f to dst.
//
// Returns:
//   - []byte: dst extended by CalculatedLength() bytes
//   - error: ErrInvalidField if a field cannot be represented on the wire
func (f Frame) AppendKNX(dst []byte) ([]byte, error) {
	if err := f.validate(); err != nil {
		return dst, err
	}

	dst = append(dst, byte(f.Code), byte(len(f.AdditionalInfo)))
	dst = append(dst, f.AdditionalInfo...)
	dst = binary.BigEndian.AppendUint16(dst, f.Flags)
	dst = binary.BigEndian.AppendUint16(dst, uint16(f.Source))
	dst = binary.BigEndian.AppendUint16(dst, f.Destination)
	dst = append(dst,
		byte(1+len(f.Data)),
		byte(uint16(f.Command)>>8),
		byte(uint16(f.Command))|f.Value,
	)
	return append(dst, f.Data...), nil
}

// Encode returns the wire encoding of f.
func (f Frame) Encode() ([]byte, error) {
	return f.AppendKNX(make([]byte, 0, f.CalculatedLength()))
}

func (f Frame) validate() error {
	switch {
	case !f.Code.Supported():
		return fmt.Errorf("%w: message code %s", ErrInvalidField, f.Code)
	case !f.Command.Supported():
		return fmt.Errorf("%w: command %s", ErrInvalidField, f.Command)
	case uint16(f.Value)&^valueMask != 0:
		return fmt.Errorf("%w: value %#x exceeds six bits", ErrInvalidField, f.Value)
	case len(f.AdditionalInfo) > maxAdditionalInfo:
		return fmt.Errorf("%w: additional info is %d bytes, max %d", ErrInvalidField, len(f.AdditionalInfo), maxAdditionalInfo)
	case len(f.Data) > maxDataLength:
		return fmt.Errorf("%w: data is %d bytes, max %d", ErrInvalidField, len(f.Data), maxDataLength)
	}
	return nil
}

// IsGroupDestination reports whether Destination is a group address.
func (f Frame) IsGroupDestination() bool {
	return f.Flags&FlagDestinationGroup != 0
}

// DestinationGroup returns the destination as a group address.
// The second result is false when the destination is an individual address.
func (f Frame) DestinationGroup() (GroupAddress, bool) {
	return GroupAddressFromUint16(f.Destination), f.IsGroupDestination()
}

// DestinationIndividual returns the destination as an individual address.
// The second result is false when the destination is a group address.
func (f Frame) DestinationIndividual() (IndividualAddress, bool) {
	return IndividualAddress(f.Destination), !f.IsGroupDestination()
}

// Hops returns the routing hop count from the control field.
func (f Frame) Hops() int {
	return int((f.Flags & hopCountMask) >> hopCountShift)
}

// SetHops replaces the routing hop count. Values above 7 are clamped.
func (f *Frame) SetHops(hops int) {
	hops = min(max(hops, 0), maxHopCount)
	f.Flags = f.Flags&^hopCountMask | uint16(hops)<<hopCountShift //nolint:gosec // clamped to 0-7
}

// String returns a human-readable representation of the frame.
func (f Frame) String() string {
	dst := IndividualAddress(f.Destination).String()
	if ga, ok := f.DestinationGroup(); ok {
		dst = ga.String()
	}
	return fmt.Sprintf("CEMI{%s %s->%s %s value:%d data:%X}", f.Code, f.Source, dst, f.Command, f.Value, f.Data)
}
