package monitor

import (
	"fmt"

	"github.com/p0l0/xknx/internal/dpt"
	"github.com/p0l0/xknx/internal/knxip"
	"github.com/p0l0/xknx/internal/knxip/cemi"
)

// DecodeValue sets ev.Value for group writes and responses whose
// destination r resolves. Other events are left unchanged.
//
// Returns:
//   - error: The DPT decode failure when the payload does not fit the
//     configured type
func DecodeValue(ev *Event, r dpt.Resolver) error {
	f := groupFrame(ev)
	if f == nil || r == nil {
		return nil
	}
	if f.Command != cemi.GroupValueWrite && f.Command != cemi.GroupValueResponse {
		return nil
	}
	ga, _ := f.DestinationGroup()
	d, ok := r.Lookup(ga)
	if !ok {
		return nil
	}

	payload := f.Data
	if d.Short() {
		payload = []byte{f.Value}
	}
	v, err := dpt.Decode(d, payload)
	if err != nil {
		return fmt.Errorf("group %s: %w", ga, err)
	}
	ev.Value = &v
	return nil
}

// groupFrame returns the cEMI frame of ev when it is addressed to a group.
func groupFrame(ev *Event) *cemi.Frame {
	if ev.Frame == nil {
		return nil
	}
	var f *cemi.Frame
	switch body := ev.Frame.Body.(type) {
	case *knxip.RoutingIndication:
		f = body.CEMI
	case *knxip.TunnellingRequest:
		f = body.CEMI
	}
	if f == nil {
		return nil
	}
	if _, ok := f.DestinationGroup(); !ok {
		return nil
	}
	return f
}
