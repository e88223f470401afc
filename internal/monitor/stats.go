package monitor

import (
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/p0l0/xknx/internal/capture"
	"github.com/p0l0/xknx/internal/knxip"
)

// sequenceRestartThreshold is the gap above which a tunnel sequence jump is
// treated as a reconnect rather than loss.
const sequenceRestartThreshold = 128

// ServiceStats counts events for one service type. ServiceType 0 collects
// datagrams whose header could not be decoded.
type ServiceStats struct {
	ServiceType knxip.ServiceType `json:"-"`
	Name        string            `json:"service_type"`
	Decoded     uint64            `json:"decoded"`
	Degraded    uint64            `json:"degraded"`
	Failed      uint64            `json:"failed"`
	Bytes       uint64            `json:"bytes"`
	LastSeen    time.Time         `json:"last_seen"`
}

// Total returns the number of events counted.
func (s ServiceStats) Total() uint64 {
	return s.Decoded + s.Degraded + s.Failed
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Started  time.Time      `json:"started"`
	Taken    time.Time      `json:"taken"`
	Services []ServiceStats `json:"services"`

	// Dropped counts datagrams discarded before decoding.
	Dropped uint64 `json:"dropped"`

	// RoutingLost sums the lost message counts reported by routers.
	RoutingLost uint64 `json:"routing_lost"`

	// TunnelGaps counts tunnelling requests missed according to the
	// per-channel sequence counter.
	TunnelGaps uint64 `json:"tunnel_gaps"`
}

// Total returns the number of events across all service types.
func (s Snapshot) Total() uint64 {
	var n uint64
	for _, svc := range s.Services {
		n += svc.Total()
	}
	return n
}

type tunnelKey struct {
	source  netip.Addr
	channel uint8
}

// Stats accumulates per-service counters. Safe for concurrent use.
type Stats struct {
	mu          sync.RWMutex
	started     time.Time
	services    map[knxip.ServiceType]*ServiceStats
	sequences   map[tunnelKey]uint8
	dropped     uint64
	routingLost uint64
	tunnelGaps  uint64
	now         func() time.Time
}

// NewStats creates an empty tracker.
func NewStats() *Stats {
	return &Stats{
		started:   time.Now(),
		services:  make(map[knxip.ServiceType]*ServiceStats),
		sequences: make(map[tunnelKey]uint8),
		now:       time.Now,
	}
}

// Record counts one event.
func (s *Stats) Record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := ev.Record.ServiceType
	svc, ok := s.services[st]
	if !ok {
		svc = &ServiceStats{ServiceType: st, Name: serviceName(st)}
		s.services[st] = svc
	}

	switch ev.Record.Status {
	case capture.StatusOK:
		svc.Decoded++
	case capture.StatusDegraded:
		svc.Degraded++
	default:
		svc.Failed++
	}
	svc.Bytes += uint64(len(ev.Record.Raw))
	svc.LastSeen = ev.Record.ReceivedAt

	if ev.Frame == nil {
		return
	}
	switch body := ev.Frame.Body.(type) {
	case *knxip.RoutingLostMessage:
		s.routingLost += uint64(body.LostMessages)
	case *knxip.TunnellingRequest:
		s.trackSequence(ev.Source.Addr(), body.ConnectionHeader)
	}
}

// trackSequence counts gaps in the sequence counter of one tunnel channel.
// Repeats of the previous sequence are retransmissions and are not gaps.
func (s *Stats) trackSequence(src netip.Addr, hdr knxip.ConnectionHeader) {
	key := tunnelKey{source: src, channel: hdr.ChannelID}
	last, seen := s.sequences[key]
	s.sequences[key] = hdr.Sequence
	if !seen || hdr.Sequence == last {
		return
	}

	gap := int(hdr.Sequence-last-1) & 0xFF
	if gap > 0 && gap < sequenceRestartThreshold {
		s.tunnelGaps += uint64(gap)
	}
}

// SetDropped records the receiver's running count of discarded datagrams.
func (s *Stats) SetDropped(n uint64) {
	s.mu.Lock()
	s.dropped = n
	s.mu.Unlock()
}

// Snapshot returns a copy of the counters, ordered by service type.
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Started:     s.started,
		Taken:       s.now(),
		Services:    make([]ServiceStats, 0, len(s.services)),
		Dropped:     s.dropped,
		RoutingLost: s.routingLost,
		TunnelGaps:  s.tunnelGaps,
	}
	for _, svc := range s.services {
		snap.Services = append(snap.Services, *svc)
	}
	slices.SortFunc(snap.Services, func(a, b ServiceStats) int {
		return int(a.ServiceType) - int(b.ServiceType)
	})
	return snap
}

func serviceName(st knxip.ServiceType) string {
	if st == 0 {
		return "UNKNOWN"
	}
	return st.String()
}
