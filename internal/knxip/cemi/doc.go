// Package cemi implements the Common External Message Interface frame format.
//
// A cEMI frame is the link-layer message carried inside KNXnet/IP routing
// indications and tunnelling requests. It transports one KNX bus telegram:
// a message code, the control field, source and destination addresses, and
// the transport/application protocol data unit.
//
// # Wire Format
//
//	Byte 0:      Message code (L_Data.req / L_Data.con / L_Data.ind)
//	Byte 1:      Additional info length (N)
//	Byte 2..N+1: Additional info (kept opaque)
//	Control 1, Control 2 (2 bytes)
//	Source individual address (2 bytes, big-endian)
//	Destination address (2 bytes, big-endian, group or individual)
//	NPDU length (1 byte, octets after the TPCI octet)
//	TPCI/APCI (2 bytes)
//	Data (NPDU length - 1 bytes)
//
// Only L_Data frames with group-value or individual-address services are
// supported. Anything else decodes to an *UnsupportedError so callers can
// degrade gracefully instead of dropping the enclosing KNXnet/IP frame.
//
// Payload bytes are never interpreted here; datapoint decoding belongs to
// the consumer.
//
// # References
//
//   - KNX Standard 03.06.03 EMI_IMI
//   - KNX Application Note 117/08 "KNX IP Communication Medium"
package cemi
