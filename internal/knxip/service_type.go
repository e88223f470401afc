package knxip

import (
	"fmt"
	"strconv"
	"strings"
)

// ServiceType identifies the body of a KNXnet/IP frame.
type ServiceType uint16

// Service types with a body implementation.
const (
	ServiceSearchRequest           ServiceType = 0x0201
	ServiceConnectRequest          ServiceType = 0x0205
	ServiceConnectResponse         ServiceType = 0x0206
	ServiceConnectionStateRequest  ServiceType = 0x0207
	ServiceConnectionStateResponse ServiceType = 0x0208
	ServiceDisconnectRequest       ServiceType = 0x0209
	ServiceDisconnectResponse      ServiceType = 0x020A
	ServiceTunnellingRequest       ServiceType = 0x0420
	ServiceTunnellingAck           ServiceType = 0x0421
	ServiceRoutingIndication       ServiceType = 0x0530
	ServiceRoutingLostMessage      ServiceType = 0x0531
)

// AllServiceTypes lists every supported service type in code order.
var AllServiceTypes = []ServiceType{
	ServiceSearchRequest,
	ServiceConnectRequest,
	ServiceConnectResponse,
	ServiceConnectionStateRequest,
	ServiceConnectionStateResponse,
	ServiceDisconnectRequest,
	ServiceDisconnectResponse,
	ServiceTunnellingRequest,
	ServiceTunnellingAck,
	ServiceRoutingIndication,
	ServiceRoutingLostMessage,
}

func (st ServiceType) String() string {
	switch st {
	case ServiceSearchRequest:
		return "SEARCH_REQUEST"
	case ServiceConnectRequest:
		return "CONNECT_REQUEST"
	case ServiceConnectResponse:
		return "CONNECT_RESPONSE"
	case ServiceConnectionStateRequest:
		return "CONNECTIONSTATE_REQUEST"
	case ServiceConnectionStateResponse:
		return "CONNECTIONSTATE_RESPONSE"
	case ServiceDisconnectRequest:
		return "DISCONNECT_REQUEST"
	case ServiceDisconnectResponse:
		return "DISCONNECT_RESPONSE"
	case ServiceTunnellingRequest:
		return "TUNNELLING_REQUEST"
	case ServiceTunnellingAck:
		return "TUNNELLING_ACK"
	case ServiceRoutingIndication:
		return "ROUTING_INDICATION"
	case ServiceRoutingLostMessage:
		return "ROUTING_LOST_MESSAGE"
	default:
		return fmt.Sprintf("SERVICE_0x%04X", uint16(st))
	}
}

// ParseServiceType accepts a name as printed by String (case-insensitive)
// or a hex code such as "0x0530". Hex codes need not have a body
// implementation.
func ParseServiceType(s string) (ServiceType, error) {
	s = strings.TrimSpace(s)
	if hexCode, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		v, err := strconv.ParseUint(hexCode, 16, 16)
		if err != nil {
			return 0, fmt.Errorf("%w: service type %q", ErrInvalidField, s)
		}
		return ServiceType(v), nil
	}
	for _, st := range AllServiceTypes {
		if strings.EqualFold(st.String(), s) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: service type %q", ErrInvalidField, s)
}

// Status is the status octet of KNXnet/IP responses and acknowledgements.
type Status uint8

// Status codes from KNXnet/IP Core and Tunnelling.
const (
	StatusNoError             Status = 0x00
	StatusHostProtocolType    Status = 0x01
	StatusVersionNotSupported Status = 0x02
	StatusSequenceNumber      Status = 0x04
	StatusConnectionID        Status = 0x21
	StatusConnectionType      Status = 0x22
	StatusConnectionOption    Status = 0x23
	StatusNoMoreConnections   Status = 0x24
	StatusDataConnection      Status = 0x26
	StatusKNXConnection       Status = 0x27
	StatusTunnellingLayer     Status = 0x29
)

func (s Status) String() string {
	switch s {
	case StatusNoError:
		return "E_NO_ERROR"
	case StatusHostProtocolType:
		return "E_HOST_PROTOCOL_TYPE"
	case StatusVersionNotSupported:
		return "E_VERSION_NOT_SUPPORTED"
	case StatusSequenceNumber:
		return "E_SEQUENCE_NUMBER"
	case StatusConnectionID:
		return "E_CONNECTION_ID"
	case StatusConnectionType:
		return "E_CONNECTION_TYPE"
	case StatusConnectionOption:
		return "E_CONNECTION_OPTION"
	case StatusNoMoreConnections:
		return "E_NO_MORE_CONNECTIONS"
	case StatusDataConnection:
		return "E_DATA_CONNECTION"
	case StatusKNXConnection:
		return "E_KNX_CONNECTION"
	case StatusTunnellingLayer:
		return "E_TUNNELLING_LAYER"
	default:
		return fmt.Sprintf("E_0x%02X", uint8(s))
	}
}
