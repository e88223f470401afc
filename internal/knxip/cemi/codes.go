package cemi

import "fmt"

// MessageCode is the first octet of a cEMI frame.
type MessageCode uint8

// Data link layer message codes handled by this package.
const (
	LDataReq MessageCode = 0x11
	LDataCon MessageCode = 0x2E
	LDataInd MessageCode = 0x29
)

// Message codes that are recognised by name but not decoded.
const (
	LRawReq      MessageCode = 0x10
	LPollDataReq MessageCode = 0x13
	LPollDataCon MessageCode = 0x25
	LBusmonInd   MessageCode = 0x2B
	LRawInd      MessageCode = 0x2D
	LRawCon      MessageCode = 0x2F
	MResetInd    MessageCode = 0xF0
	MResetReq    MessageCode = 0xF1
	MPropWriteCn MessageCode = 0xF5
	MPropWriteRq MessageCode = 0xF6
	MPropInfoInd MessageCode = 0xF7
	MPropReadCon MessageCode = 0xFB
	MPropReadReq MessageCode = 0xFC
)

var messageCodeNames = map[MessageCode]string{
	LDataReq:     "L_DATA_REQ",
	LDataCon:     "L_DATA_CON",
	LDataInd:     "L_DATA_IND",
	LRawReq:      "L_RAW_REQ",
	LPollDataReq: "L_POLL_DATA_REQ",
	LPollDataCon: "L_POLL_DATA_CON",
	LBusmonInd:   "L_BUSMON_IND",
	LRawInd:      "L_RAW_IND",
	LRawCon:      "L_RAW_CON",
	MResetInd:    "M_RESET_IND",
	MResetReq:    "M_RESET_REQ",
	MPropWriteCn: "M_PROP_WRITE_CON",
	MPropWriteRq: "M_PROP_WRITE_REQ",
	MPropInfoInd: "M_PROP_INFO_IND",
	MPropReadCon: "M_PROP_READ_CON",
	MPropReadReq: "M_PROP_READ_REQ",
}

// Supported reports whether frames with this code can be decoded.
func (c MessageCode) Supported() bool {
	switch c {
	case LDataReq, LDataCon, LDataInd:
		return true
	default:
		return false
	}
}

func (c MessageCode) String() string {
	if name, ok := messageCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", uint8(c))
}

// Control field flags. Control 1 is the high octet, Control 2 the low octet.
const (
	FlagFrameTypeStandard uint16 = 0x8000
	FlagDoNotRepeat       uint16 = 0x2000
	FlagBroadcast         uint16 = 0x1000

	FlagPrioritySystem uint16 = 0x0000
	FlagPriorityNormal uint16 = 0x0400
	FlagPriorityUrgent uint16 = 0x0800
	FlagPriorityLow    uint16 = 0x0C00

	FlagAckRequested uint16 = 0x0200
	FlagConfirmError uint16 = 0x0100

	// FlagDestinationGroup marks the destination as a group address.
	FlagDestinationGroup uint16 = 0x0080

	// FlagExtendedFrameFormat is the low nibble of Control 2.
	FlagExtendedFrameFormat uint16 = 0x000F

	hopCountMask  uint16 = 0x0070
	hopCountShift        = 4
	maxHopCount          = 7
)

// DefaultGroupFlags are the control flags used for outgoing group telegrams:
// standard frame, no repeat, broadcast, low priority, group destination,
// hop count 6.
const DefaultGroupFlags = FlagFrameTypeStandard | FlagDoNotRepeat | FlagBroadcast |
	FlagPriorityLow | FlagDestinationGroup | 6<<hopCountShift

// APCI is the application layer service carried in the TPCI/APCI octets,
// with the six low data bits masked off.
type APCI uint16

// Supported application services.
const (
	GroupValueRead            APCI = 0x0000
	GroupValueResponse        APCI = 0x0040
	GroupValueWrite           APCI = 0x0080
	IndividualAddressWrite    APCI = 0x00C0
	IndividualAddressRead     APCI = 0x0100
	IndividualAddressResponse APCI = 0x0140
)

const (
	// commandMask selects TPCI and the four APCI service bits.
	commandMask uint16 = 0xFFC0

	// valueMask selects the six data bits packed into the APCI octet.
	valueMask uint16 = 0x003F
)

// Supported reports whether the service can be decoded.
func (a APCI) Supported() bool {
	switch a {
	case GroupValueRead, GroupValueResponse, GroupValueWrite,
		IndividualAddressWrite, IndividualAddressRead, IndividualAddressResponse:
		return true
	default:
		return false
	}
}

func (a APCI) String() string {
	switch a {
	case GroupValueRead:
		return "GroupValueRead"
	case GroupValueResponse:
		return "GroupValueResponse"
	case GroupValueWrite:
		return "GroupValueWrite"
	case IndividualAddressWrite:
		return "IndividualAddressWrite"
	case IndividualAddressRead:
		return "IndividualAddressRead"
	case IndividualAddressResponse:
		return "IndividualAddressResponse"
	default:
		return fmt.Sprintf("APCI(0x%04X)", uint16(a))
	}
}
