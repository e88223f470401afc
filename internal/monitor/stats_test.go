package monitor

import (
	"net/netip"
	"testing"

	"github.com/p0l0/xknx/internal/knxip"
)

func TestStatsRecord(t *testing.T) {
	s := NewStats()
	for _, data := range [][]byte{routingIndication, routingIndication, routingIndicationBusmon, truncatedIndication, garbage, routingLost} {
		s.Record(DecodeDatagram(datagram(data)))
	}
	s.SetDropped(3)

	snap := s.Snapshot()
	if snap.Total() != 6 {
		t.Errorf("Total() = %d, want 6", snap.Total())
	}
	if snap.Dropped != 3 {
		t.Errorf("Dropped = %d, want 3", snap.Dropped)
	}
	if snap.RoutingLost != 5 {
		t.Errorf("RoutingLost = %d, want 5", snap.RoutingLost)
	}

	if len(snap.Services) != 3 {
		t.Fatalf("Services = %+v, want 3 entries", snap.Services)
	}
	unknown, indication, lost := snap.Services[0], snap.Services[1], snap.Services[2]

	if unknown.ServiceType != 0 || unknown.Name != "UNKNOWN" || unknown.Failed != 1 {
		t.Errorf("unknown = %+v", unknown)
	}
	if indication.ServiceType != knxip.ServiceRoutingIndication {
		t.Fatalf("Services[1] = %s, want ROUTING_INDICATION", indication.ServiceType)
	}
	if indication.Decoded != 2 || indication.Degraded != 1 || indication.Failed != 1 {
		t.Errorf("indication = %+v, want 2 decoded, 1 degraded, 1 failed", indication)
	}
	wantBytes := uint64(2*len(routingIndication) + len(routingIndicationBusmon) + len(truncatedIndication))
	if indication.Bytes != wantBytes {
		t.Errorf("indication bytes = %d, want %d", indication.Bytes, wantBytes)
	}
	if !indication.LastSeen.Equal(testTime) {
		t.Errorf("LastSeen = %v, want %v", indication.LastSeen, testTime)
	}
	if lost.Name != "ROUTING_LOST_MESSAGE" || lost.Decoded != 1 {
		t.Errorf("lost = %+v", lost)
	}
}

func TestStatsTunnelGaps(t *testing.T) {
	tests := []struct {
		name     string
		seqs     []uint8
		wantGaps uint64
	}{
		{name: "in order", seqs: []uint8{0, 1, 2, 3}},
		{name: "repeat is retransmission", seqs: []uint8{5, 5, 6}},
		{name: "one missed", seqs: []uint8{1, 3}, wantGaps: 1},
		{name: "wraps", seqs: []uint8{254, 255, 0, 1}},
		{name: "gap across wrap", seqs: []uint8{254, 1}, wantGaps: 2},
		{name: "large jump is restart", seqs: []uint8{10, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStats()
			for _, seq := range tt.seqs {
				s.Record(DecodeDatagram(datagram(tunnellingRequest(seq))))
			}
			if got := s.Snapshot().TunnelGaps; got != tt.wantGaps {
				t.Errorf("TunnelGaps = %d, want %d", got, tt.wantGaps)
			}
		})
	}
}

func TestStatsTunnelGapsPerSource(t *testing.T) {
	s := NewStats()

	a := datagram(tunnellingRequest(1))
	b := datagram(tunnellingRequest(7))
	b.Source = netip.MustParseAddrPort("192.168.42.11:3671")

	s.Record(DecodeDatagram(a))
	s.Record(DecodeDatagram(b))
	a.Data = tunnellingRequest(2)
	s.Record(DecodeDatagram(a))

	if got := s.Snapshot().TunnelGaps; got != 0 {
		t.Errorf("TunnelGaps = %d, want 0 for interleaved sources", got)
	}
}
