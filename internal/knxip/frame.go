package knxip

import (
	"fmt"

	"github.com/p0l0/xknx/internal/knxip/cemi"
)

// Frame is one KNXnet/IP frame. The service type is derived from Body, so
// the two cannot disagree.
type Frame struct {
	Body Body
}

// NewFrame wraps body in a frame.
func NewFrame(body Body) Frame {
	return Frame{Body: body}
}

// ServiceType returns the service type of the body, or 0 if Body is nil.
func (f Frame) ServiceType() ServiceType {
	if f.Body == nil {
		return 0
	}
	return f.Body.ServiceType()
}

// CalculatedLength returns the total encoded size including the header.
func (f Frame) CalculatedLength() int {
	if f.Body == nil {
		return HeaderLength
	}
	return HeaderLength + f.Body.CalculatedLength()
}

// AppendKNX appends the wire encoding of f to dst. The header's total length
// is always recomputed from the body.
//
// Returns:
//   - []byte: dst extended by CalculatedLength() bytes
//   - error: ErrInvalidField for a nil body or an oversized frame,
//     ErrMissingSubFrame when a body lacks its cEMI frame
func (f Frame) AppendKNX(dst []byte) ([]byte, error) {
	if f.Body == nil {
		return dst, fmt.Errorf("%w: frame has no body", ErrInvalidField)
	}

	header, err := newHeader(f.Body.ServiceType(), f.Body.CalculatedLength())
	if err != nil {
		return dst, err
	}

	out, err := f.Body.appendKNX(header.AppendKNX(dst))
	if err != nil {
		return dst, err
	}
	return out, nil
}

// Encode returns the wire encoding of f.
func (f Frame) Encode() ([]byte, error) {
	return f.AppendKNX(make([]byte, 0, f.CalculatedLength()))
}

// String returns a short description of the frame.
func (f Frame) String() string {
	return fmt.Sprintf("KNXIPFrame{%s %+v}", f.ServiceType(), f.Body)
}

// Decoder decodes KNXnet/IP frames. The zero value is ready to use.
type Decoder struct {
	// OnUnsupported, if set, is called when an embedded cEMI frame is not
	// supported. The frame still decodes with a nil CEMI field.
	OnUnsupported func(ServiceType, *cemi.UnsupportedError)
}

// Decode parses one frame from the start of data. Bytes beyond the header's
// total length are ignored.
//
// Returns:
//   - Frame: Decoded frame
//   - error: ErrMalformedHeader, ErrUnknownServiceType, ErrFrameTooShort,
//     ErrMalformedBody or ErrMalformedConnectionHeader
func (d Decoder) Decode(data []byte) (Frame, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return Frame{}, err
	}

	body, err := newBody(header.ServiceType)
	if err != nil {
		return Frame{}, err
	}

	if int(header.TotalLength) > len(data) {
		return Frame{}, fmt.Errorf("%w: header declares %d bytes, have %d", ErrFrameTooShort, header.TotalLength, len(data))
	}

	var observe func(*cemi.UnsupportedError)
	if d.OnUnsupported != nil {
		st := header.ServiceType
		observe = func(err *cemi.UnsupportedError) { d.OnUnsupported(st, err) }
	}

	payload := data[HeaderLength:header.TotalLength]
	n, err := body.decodeKNX(payload, observe)
	if err != nil {
		return Frame{}, fmt.Errorf("decode %s: %w", header.ServiceType, err)
	}
	if n != len(payload) {
		return Frame{}, fmt.Errorf("%w: %s consumed %d of %d body bytes", ErrMalformedBody, header.ServiceType, n, len(payload))
	}

	return Frame{Body: body}, nil
}

// Decode parses one frame with a zero Decoder.
func Decode(data []byte) (Frame, error) {
	return Decoder{}.Decode(data)
}
