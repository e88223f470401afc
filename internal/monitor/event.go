package monitor

import (
	"net/netip"
	"strings"
	"time"

	"github.com/p0l0/xknx/internal/capture"
	"github.com/p0l0/xknx/internal/dpt"
	"github.com/p0l0/xknx/internal/knxip"
	"github.com/p0l0/xknx/internal/knxip/cemi"
)

// Event is the decode result for one datagram.
type Event struct {
	// Record is what gets stored. Record.ID is filled in by the capture sink.
	Record capture.Record

	Source netip.AddrPort

	// Frame is nil when decoding failed.
	Frame *knxip.Frame

	// Err is the decode error for StatusError events.
	Err error

	// Value is the decoded group value, set by DecodeValue when the
	// destination has a configured datapoint type.
	Value *dpt.Value
}

// DecodeDatagram decodes dg without side effects.
//
// A frame whose embedded cEMI is unsupported still decodes; the event is
// StatusDegraded and Record.Error names what was dropped.
func DecodeDatagram(dg Datagram) Event {
	receivedAt := dg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	ev := Event{
		Source: dg.Source,
		Record: capture.Record{
			ReceivedAt: receivedAt,
			Raw:        dg.Data,
			Status:     capture.StatusOK,
		},
	}
	if dg.Source.IsValid() {
		ev.Record.Source = dg.Source.String()
	}
	if hdr, err := knxip.DecodeHeader(dg.Data); err == nil {
		ev.Record.ServiceType = hdr.ServiceType
	}

	var unsupported []string
	dec := knxip.Decoder{
		OnUnsupported: func(_ knxip.ServiceType, err *cemi.UnsupportedError) {
			unsupported = append(unsupported, err.Error())
		},
	}

	frame, err := dec.Decode(dg.Data)
	switch {
	case err != nil:
		ev.Err = err
		ev.Record.Status = capture.StatusError
		ev.Record.Error = err.Error()
	case len(unsupported) > 0:
		ev.Frame = &frame
		ev.Record.Status = capture.StatusDegraded
		ev.Record.Error = strings.Join(unsupported, "; ")
	default:
		ev.Frame = &frame
	}
	return ev
}

// DecodeRecord re-decodes a stored capture.
func DecodeRecord(rec capture.Record) Event {
	dg := Datagram{Data: rec.Raw, ReceivedAt: rec.ReceivedAt}
	if ap, err := netip.ParseAddrPort(rec.Source); err == nil {
		dg.Source = ap
	}
	ev := DecodeDatagram(dg)
	ev.Record.ID = rec.ID
	return ev
}
