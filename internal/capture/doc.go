// Package capture stores received KNXnet/IP datagrams in the frame_captures
// table and queries them back for the API and the dump tool.
//
// Every datagram is stored, including those that failed to decode, so the
// raw bytes are available for later inspection.
package capture
