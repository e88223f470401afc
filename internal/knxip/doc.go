// Package knxip implements the KNXnet/IP frame codec.
//
// It parses raw UDP/TCP payloads into typed frames and serialises typed
// frames back into the exact wire layout. The codec is stateless: every
// Decode and Encode call works on a single buffer and touches no shared
// state, so it is safe for concurrent use without synchronisation.
//
// # Architecture
//
// A KNXnet/IP frame has three dispatch layers:
//
//	┌──────────────┐   service type   ┌──────────────┐   (some bodies)   ┌────────────┐
//	│ Header (6 B) │ ───────────────► │     Body     │ ────────────────► │ cEMI frame │
//	└──────────────┘                  └──────────────┘                   └────────────┘
//
// The header carries the service type and the total length. The service
// type selects exactly one Body implementation. Routing indications and
// tunnelling requests embed a cEMI frame (see package cemi).
//
// # Usage
//
//	frame, err := knxip.Decode(datagram)
//	if err != nil {
//	    return err
//	}
//	if req, ok := frame.Body.(*knxip.TunnellingRequest); ok && req.CEMI == nil {
//	    // Embedded message not understood; still acknowledge the request.
//	}
//
//	out, err := knxip.NewFrame(knxip.NewConnectRequest(
//	    knxip.TunnelConnection, control, data)).Encode()
//
// # Unsupported Embedded Messages
//
// A routing indication or tunnelling request whose cEMI frame is not
// supported still decodes successfully. Its CEMI field is nil and the
// remaining body bytes are consumed. Use Decoder.OnUnsupported to observe
// these events (e.g. for logging) without the codec owning a logger.
//
// # References
//
//   - KNX Standard 03.08.02 KNXnet/IP Core
//   - KNX Standard 03.08.04 KNXnet/IP Tunnelling
//   - KNX Standard 03.08.05 KNXnet/IP Routing
package knxip
