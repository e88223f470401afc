package monitor

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/p0l0/xknx/internal/capture"
	"github.com/p0l0/xknx/internal/infrastructure/influxdb"
)

var (
	// 1.1.1 writes 1 to group 1/2/3.
	routingIndication = []byte{
		0x06, 0x10, 0x05, 0x30, 0x00, 0x11,
		0x29, 0x00, 0xBC, 0xE0, 0x11, 0x01, 0x0A, 0x03, 0x01, 0x00, 0x81,
	}

	// Bus monitor indication, not an L_Data frame.
	routingIndicationBusmon = []byte{
		0x06, 0x10, 0x05, 0x30, 0x00, 0x11,
		0x2B, 0x00, 0xBC, 0xE0, 0x11, 0x01, 0x0A, 0x03, 0x01, 0x00, 0x81,
	}

	routingLost = []byte{0x06, 0x10, 0x05, 0x31, 0x00, 0x0A, 0x04, 0x01, 0x00, 0x05}

	// Header declares 0x11 bytes, only 8 present.
	truncatedIndication = []byte{0x06, 0x10, 0x05, 0x30, 0x00, 0x11, 0x29, 0x00}

	garbage = []byte{0xDE, 0xAD}

	testSource = netip.MustParseAddrPort("192.168.42.10:3671")
	testTime   = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
)

// tunnellingRequest returns a request on channel 1 with the given sequence.
func tunnellingRequest(seq uint8) []byte {
	return []byte{
		0x06, 0x10, 0x04, 0x20, 0x00, 0x15,
		0x04, 0x01, seq, 0x00,
		0x29, 0x00, 0xBC, 0xE0, 0x11, 0x01, 0x0A, 0x03, 0x01, 0x00, 0x81,
	}
}

func datagram(data []byte) Datagram {
	return Datagram{Data: data, Source: testSource, ReceivedAt: testTime}
}

type recordingSink struct {
	name string
	err  error

	mu     sync.Mutex
	events []Event
	snaps  []Snapshot
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) HandleEvent(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) PublishStats(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return s.err
}

func (s *recordingSink) counts() (events, snaps int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events), len(s.snaps)
}

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	retained []bool
	err      error
}

func (p *fakePublisher) Publish(topic string, payload []byte, _ byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	p.retained = append(p.retained, retained)
	return p.err
}

func (p *fakePublisher) PublishDefault(topic string, payload []byte) error {
	return p.Publish(topic, payload, 0, false)
}

type fakeMetrics struct {
	frames []influxdb.FrameMetric
	stats  []influxdb.StatsMetric
	groups []influxdb.GroupValueMetric
}

func (m *fakeMetrics) WriteFrame(f influxdb.FrameMetric) { m.frames = append(m.frames, f) }
func (m *fakeMetrics) WriteStats(s influxdb.StatsMetric) { m.stats = append(m.stats, s) }
func (m *fakeMetrics) WriteGroupValue(g influxdb.GroupValueMetric) {
	m.groups = append(m.groups, g)
}

type fakeRecorder struct {
	observations []capture.Observation
}

func (r *fakeRecorder) Record(_ context.Context, obs capture.Observation) error {
	r.observations = append(r.observations, obs)
	return nil
}

type fakeBroadcaster struct {
	channels []string
	payloads []any
}

func (b *fakeBroadcaster) Broadcast(channel string, payload any) {
	b.channels = append(b.channels, channel)
	b.payloads = append(b.payloads, payload)
}

type chanSource struct {
	ch      chan Datagram
	dropped uint64
}

func (s *chanSource) Datagrams() <-chan Datagram { return s.ch }
func (s *chanSource) Dropped() uint64            { return s.dropped }
