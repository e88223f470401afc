package knxip

import (
	"encoding/binary"
	"fmt"

	"github.com/p0l0/xknx/internal/knxip/cemi"
)

// ConnectRequestType is the connection type octet of a CRI or CRD block.
type ConnectRequestType uint8

// Connection types.
const (
	DeviceMgmtConnection ConnectRequestType = 0x03
	TunnelConnection     ConnectRequestType = 0x04
	RemlogConnection     ConnectRequestType = 0x06
	RemconfConnection    ConnectRequestType = 0x07
	ObjsvrConnection     ConnectRequestType = 0x08
)

func (t ConnectRequestType) valid() bool {
	switch t {
	case DeviceMgmtConnection, TunnelConnection, RemlogConnection, RemconfConnection, ObjsvrConnection:
		return true
	default:
		return false
	}
}

func (t ConnectRequestType) String() string {
	switch t {
	case DeviceMgmtConnection:
		return "DEVICE_MGMT_CONNECTION"
	case TunnelConnection:
		return "TUNNEL_CONNECTION"
	case RemlogConnection:
		return "REMLOG_CONNECTION"
	case RemconfConnection:
		return "REMCONF_CONNECTION"
	case ObjsvrConnection:
		return "OBJSVR_CONNECTION"
	default:
		return fmt.Sprintf("CONNECTION_0x%02X", uint8(t))
	}
}

// TunnelLayer is the KNX layer a tunnel connection operates on.
type TunnelLayer uint8

// Tunnel layers.
const (
	TunnelLinkLayer  TunnelLayer = 0x02
	TunnelRaw        TunnelLayer = 0x04
	TunnelBusmonitor TunnelLayer = 0x80
)

func (l TunnelLayer) valid() bool {
	return l == TunnelLinkLayer || l == TunnelRaw || l == TunnelBusmonitor
}

// CRI/CRD block lengths.
const (
	// tunnelCRILength is length, type, layer, reserved.
	tunnelCRILength = 4

	// tunnelCRDLength is length, type, individual address(2).
	tunnelCRDLength = 4

	// basicBlockLength is length and type only.
	basicBlockLength = 2
)

// connectionBlockLength returns the CRI/CRD length for a connection type.
func connectionBlockLength(t ConnectRequestType, tunnelLength int) int {
	if t == TunnelConnection {
		return tunnelLength
	}
	return basicBlockLength
}

// ConnectRequest asks a KNXnet/IP server to open a tunnel or
// device-management connection.
//
// Wire format:
//
//	Control endpoint HPAI (8 bytes)
//	Data endpoint HPAI (8 bytes)
//	CRI: [length, connection type, ...]
//	  tunnel:      [0x04, 0x04, layer, 0x00]
//	  other types: [0x02, type]
//
// TunnelLayer is only meaningful for TunnelConnection and must be zero
// otherwise.
type ConnectRequest struct {
	RequestType     ConnectRequestType
	ControlEndpoint HPAI
	DataEndpoint    HPAI
	TunnelLayer     TunnelLayer
}

// NewConnectRequest builds a connect request. Tunnel connections default to
// the link layer.
func NewConnectRequest(requestType ConnectRequestType, control, data HPAI) *ConnectRequest {
	req := &ConnectRequest{
		RequestType:     requestType,
		ControlEndpoint: control,
		DataEndpoint:    data,
	}
	if requestType == TunnelConnection {
		req.TunnelLayer = TunnelLinkLayer
	}
	return req
}

// ServiceType implements Body.
func (*ConnectRequest) ServiceType() ServiceType { return ServiceConnectRequest }

// CalculatedLength implements Body.
func (r *ConnectRequest) CalculatedLength() int {
	return 2*hpaiLength + connectionBlockLength(r.RequestType, tunnelCRILength)
}

func (r *ConnectRequest) decodeKNX(data []byte, _ func(*cemi.UnsupportedError)) (int, error) {
	var err error
	pos := 0
	for _, endpoint := range []*HPAI{&r.ControlEndpoint, &r.DataEndpoint} {
		var n int
		if *endpoint, n, err = DecodeHPAI(data[pos:]); err != nil {
			return 0, err
		}
		pos += n
	}

	cri := data[pos:]
	if len(cri) < basicBlockLength {
		return 0, fmt.Errorf("%w: CRI needs at least %d bytes, have %d", ErrMalformedBody, basicBlockLength, len(cri))
	}

	r.RequestType = ConnectRequestType(cri[1])
	if !r.RequestType.valid() {
		return 0, fmt.Errorf("%w: unknown connection type 0x%02X", ErrMalformedBody, cri[1])
	}

	want := connectionBlockLength(r.RequestType, tunnelCRILength)
	if int(cri[0]) != want {
		return 0, fmt.Errorf("%w: CRI length %d, want %d for %s", ErrMalformedBody, cri[0], want, r.RequestType)
	}
	if len(cri) < want {
		return 0, fmt.Errorf("%w: CRI needs %d bytes, have %d", ErrMalformedBody, want, len(cri))
	}

	r.TunnelLayer = 0
	if r.RequestType == TunnelConnection {
		r.TunnelLayer = TunnelLayer(cri[2])
		if !r.TunnelLayer.valid() {
			return 0, fmt.Errorf("%w: unknown tunnel layer 0x%02X", ErrMalformedBody, cri[2])
		}
	}

	return pos + want, nil
}

func (r *ConnectRequest) appendKNX(dst []byte) ([]byte, error) {
	if !r.RequestType.valid() {
		return dst, fmt.Errorf("%w: connection type %s", ErrInvalidField, r.RequestType)
	}
	if r.RequestType == TunnelConnection && !r.TunnelLayer.valid() {
		return dst, fmt.Errorf("%w: tunnel layer 0x%02X", ErrInvalidField, uint8(r.TunnelLayer))
	}
	if r.RequestType != TunnelConnection && r.TunnelLayer != 0 {
		return dst, fmt.Errorf("%w: tunnel layer set for %s", ErrInvalidField, r.RequestType)
	}

	var err error
	if dst, err = r.ControlEndpoint.AppendKNX(dst); err != nil {
		return dst, err
	}
	if dst, err = r.DataEndpoint.AppendKNX(dst); err != nil {
		return dst, err
	}

	if r.RequestType == TunnelConnection {
		return append(dst, tunnelCRILength, byte(r.RequestType), byte(r.TunnelLayer), 0x00), nil
	}
	return append(dst, basicBlockLength, byte(r.RequestType)), nil
}

// ConnectResponse is the server's answer to a ConnectRequest.
//
// Wire format:
//
//	Byte 0: Communication channel ID
//	Byte 1: Status
//	then, only when Status is StatusNoError:
//	  Data endpoint HPAI (8 bytes)
//	  CRD: [length, connection type, (individual address for tunnels)]
//
// IndividualAddress is the address assigned to a tunnel client and must be
// zero for other connection types.
type ConnectResponse struct {
	ChannelID         uint8
	Status            Status
	DataEndpoint      HPAI
	ConnectionType    ConnectRequestType
	IndividualAddress cemi.IndividualAddress
}

// ServiceType implements Body.
func (*ConnectResponse) ServiceType() ServiceType { return ServiceConnectResponse }

// CalculatedLength implements Body.
func (r *ConnectResponse) CalculatedLength() int {
	if r.Status != StatusNoError {
		return 2
	}
	return 2 + hpaiLength + connectionBlockLength(r.ConnectionType, tunnelCRDLength)
}

func (r *ConnectResponse) decodeKNX(data []byte, _ func(*cemi.UnsupportedError)) (int, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("%w: connect response needs 2 bytes, have %d", ErrMalformedBody, len(data))
	}
	r.ChannelID = data[0]
	r.Status = Status(data[1])

	if r.Status != StatusNoError {
		// Servers may pad error responses with an empty HPAI and CRD.
		return len(data), nil
	}

	var err error
	var n int
	if r.DataEndpoint, n, err = DecodeHPAI(data[2:]); err != nil {
		return 0, err
	}
	pos := 2 + n

	crd := data[pos:]
	if len(crd) < basicBlockLength {
		return 0, fmt.Errorf("%w: CRD needs at least %d bytes, have %d", ErrMalformedBody, basicBlockLength, len(crd))
	}
	r.ConnectionType = ConnectRequestType(crd[1])
	if !r.ConnectionType.valid() {
		return 0, fmt.Errorf("%w: unknown connection type 0x%02X", ErrMalformedBody, crd[1])
	}

	want := connectionBlockLength(r.ConnectionType, tunnelCRDLength)
	if int(crd[0]) != want || len(crd) < want {
		return 0, fmt.Errorf("%w: CRD length %d (have %d bytes), want %d", ErrMalformedBody, crd[0], len(crd), want)
	}

	r.IndividualAddress = 0
	if r.ConnectionType == TunnelConnection {
		r.IndividualAddress = cemi.IndividualAddress(binary.BigEndian.Uint16(crd[2:4]))
	}
	return pos + want, nil
}

func (r *ConnectResponse) appendKNX(dst []byte) ([]byte, error) {
	dst = append(dst, r.ChannelID, byte(r.Status))
	if r.Status != StatusNoError {
		return dst, nil
	}

	if !r.ConnectionType.valid() {
		return dst, fmt.Errorf("%w: connection type %s", ErrInvalidField, r.ConnectionType)
	}
	if r.ConnectionType != TunnelConnection && r.IndividualAddress != 0 {
		return dst, fmt.Errorf("%w: individual address set for %s", ErrInvalidField, r.ConnectionType)
	}

	var err error
	if dst, err = r.DataEndpoint.AppendKNX(dst); err != nil {
		return dst, err
	}
	if r.ConnectionType == TunnelConnection {
		dst = append(dst, tunnelCRDLength, byte(r.ConnectionType))
		return binary.BigEndian.AppendUint16(dst, uint16(r.IndividualAddress)), nil
	}
	return append(dst, basicBlockLength, byte(r.ConnectionType)), nil
}
