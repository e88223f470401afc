package knxip

import (
	"fmt"

	"github.com/p0l0/xknx/internal/knxip/cemi"
)

// channelRequest is the layout shared by CONNECTIONSTATE_REQUEST and
// DISCONNECT_REQUEST:
//
//	Byte 0:   Communication channel ID
//	Byte 1:   Reserved (0x00)
//	Byte 2-9: Control endpoint HPAI
type channelRequest struct {
	ChannelID       uint8
	ControlEndpoint HPAI
}

// channelRequestLength is channel + reserved + HPAI.
const channelRequestLength = 2 + hpaiLength

func (r *channelRequest) decode(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("%w: channel request needs %d bytes, have %d", ErrMalformedBody, channelRequestLength, len(data))
	}
	r.ChannelID = data[0]

	endpoint, n, err := DecodeHPAI(data[2:])
	if err != nil {
		return 0, err
	}
	r.ControlEndpoint = endpoint
	return 2 + n, nil
}

func (r *channelRequest) append(dst []byte) ([]byte, error) {
	return r.ControlEndpoint.AppendKNX(append(dst, r.ChannelID, 0x00))
}

// channelResponse is the layout shared by CONNECTIONSTATE_RESPONSE and
// DISCONNECT_RESPONSE: [channel ID, status].
type channelResponse struct {
	ChannelID uint8
	Status    Status
}

const channelResponseLength = 2

func (r *channelResponse) decode(data []byte) (int, error) {
	if len(data) < channelResponseLength {
		return 0, fmt.Errorf("%w: channel response needs %d bytes, have %d", ErrMalformedBody, channelResponseLength, len(data))
	}
	r.ChannelID = data[0]
	r.Status = Status(data[1])
	return channelResponseLength, nil
}

func (r *channelResponse) append(dst []byte) []byte {
	return append(dst, r.ChannelID, byte(r.Status))
}

// ConnectionStateRequest is the heartbeat a client sends to keep a
// connection open.
type ConnectionStateRequest struct {
	ChannelID       uint8
	ControlEndpoint HPAI
}

// ServiceType implements Body.
func (*ConnectionStateRequest) ServiceType() ServiceType { return ServiceConnectionStateRequest }

// CalculatedLength implements Body.
func (*ConnectionStateRequest) CalculatedLength() int { return channelRequestLength }

func (r *ConnectionStateRequest) decodeKNX(data []byte, _ func(*cemi.UnsupportedError)) (int, error) {
	var cr channelRequest
	n, err := cr.decode(data)
	if err != nil {
		return 0, err
	}
	*r = ConnectionStateRequest(cr)
	return n, nil
}

func (r *ConnectionStateRequest) appendKNX(dst []byte) ([]byte, error) {
	cr := channelRequest(*r)
	return cr.append(dst)
}

// ConnectionStateResponse answers a heartbeat.
type ConnectionStateResponse struct {
	ChannelID uint8
	Status    Status
}

// ServiceType implements Body.
func (*ConnectionStateResponse) ServiceType() ServiceType { return ServiceConnectionStateResponse }

// CalculatedLength implements Body.
func (*ConnectionStateResponse) CalculatedLength() int { return channelResponseLength }

func (r *ConnectionStateResponse) decodeKNX(data []byte, _ func(*cemi.UnsupportedError)) (int, error) {
	var cr channelResponse
	n, err := cr.decode(data)
	if err != nil {
		return 0, err
	}
	*r = ConnectionStateResponse(cr)
	return n, nil
}

func (r *ConnectionStateResponse) appendKNX(dst []byte) ([]byte, error) {
	cr := channelResponse(*r)
	return cr.append(dst), nil
}

// DisconnectRequest closes a connection. Either peer may send it.
type DisconnectRequest struct {
	ChannelID       uint8
	ControlEndpoint HPAI
}

// ServiceType implements Body.
func (*DisconnectRequest) ServiceType() ServiceType { return ServiceDisconnectRequest }

// CalculatedLength implements Body.
func (*DisconnectRequest) CalculatedLength() int { return channelRequestLength }

func (r *DisconnectRequest) decodeKNX(data []byte, _ func(*cemi.UnsupportedError)) (int, error) {
	var cr channelRequest
	n, err := cr.decode(data)
	if err != nil {
		return 0, err
	}
	*r = DisconnectRequest(cr)
	return n, nil
}

func (r *DisconnectRequest) appendKNX(dst []byte) ([]byte, error) {
	cr := channelRequest(*r)
	return cr.append(dst)
}

// DisconnectResponse acknowledges a DisconnectRequest.
type DisconnectResponse struct {
	ChannelID uint8
	Status    Status
}

// ServiceType implements Body.
func (*DisconnectResponse) ServiceType() ServiceType { return ServiceDisconnectResponse }

// CalculatedLength implements Body.
func (*DisconnectResponse) CalculatedLength() int { return channelResponseLength }

func (r *DisconnectResponse) decodeKNX(data []byte, _ func(*cemi.UnsupportedError)) (int, error) {
	var cr channelResponse
	n, err := cr.decode(data)
	if err != nil {
		return 0, err
	}
	*r = DisconnectResponse(cr)
	return n, nil
}

func (r *DisconnectResponse) appendKNX(dst []byte) ([]byte, error) {
	cr := channelResponse(*r)
	return cr.append(dst), nil
}
