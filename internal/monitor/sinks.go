package monitor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/p0l0/xknx/internal/capture"
	"github.com/p0l0/xknx/internal/infrastructure/influxdb"
	"github.com/p0l0/xknx/internal/infrastructure/mqtt"
	"github.com/p0l0/xknx/internal/knxip/cemi"
)

// CaptureSink stores every event in a capture repository.
type CaptureSink struct {
	repo capture.Repository
}

// NewCaptureSink creates a sink over repo.
func NewCaptureSink(repo capture.Repository) *CaptureSink {
	return &CaptureSink{repo: repo}
}

// Name implements Sink.
func (*CaptureSink) Name() string { return "capture" }

// HandleEvent implements Sink.
func (s *CaptureSink) HandleEvent(ctx context.Context, ev Event) error {
	rec := ev.Record
	if err := s.repo.Create(ctx, &rec); err != nil {
		return fmt.Errorf("storing capture: %w", err)
	}
	return nil
}

// AddressRecorder is the subset of *capture.AddressRecorder used by
// AddressSink.
type AddressRecorder interface {
	Record(ctx context.Context, obs capture.Observation) error
}

// AddressSink records the source and destination of every group telegram.
type AddressSink struct {
	rec AddressRecorder
}

// NewAddressSink creates a sink over rec.
func NewAddressSink(rec AddressRecorder) *AddressSink {
	return &AddressSink{rec: rec}
}

// Name implements Sink.
func (*AddressSink) Name() string { return "addresses" }

// HandleEvent implements Sink.
func (s *AddressSink) HandleEvent(ctx context.Context, ev Event) error {
	f := groupFrame(&ev)
	if f == nil {
		return nil
	}
	ga, _ := f.DestinationGroup()
	obs := capture.Observation{
		Source:   f.Source.String(),
		Group:    ga.String(),
		Response: f.Command == cemi.GroupValueResponse,
		At:       ev.Record.ReceivedAt,
	}
	if ev.Value != nil {
		obs.Value = ev.Value.Text
	}
	return s.rec.Record(ctx, obs)
}

// Publisher is the subset of *mqtt.Client used by MQTTSink.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishDefault(topic string, payload []byte) error
}

// MQTTSink publishes a FrameSummary per event to {prefix}/frame/{service},
// retained group values to {prefix}/group/{address} and retained snapshots
// to {prefix}/stats.
type MQTTSink struct {
	pub    Publisher
	topics mqtt.Topics
}

// NewMQTTSink creates a sink publishing under topics.
func NewMQTTSink(pub Publisher, topics mqtt.Topics) *MQTTSink {
	return &MQTTSink{pub: pub, topics: topics}
}

// Name implements Sink.
func (*MQTTSink) Name() string { return "mqtt" }

// HandleEvent implements Sink.
func (s *MQTTSink) HandleEvent(_ context.Context, ev Event) error {
	data, err := json.Marshal(Summarize(ev))
	if err != nil {
		return fmt.Errorf("marshalling frame summary: %w", err)
	}
	if err := s.pub.PublishDefault(s.topics.Frame(serviceName(ev.Record.ServiceType)), data); err != nil {
		return err
	}
	if ev.Value == nil {
		return nil
	}

	ga, _ := groupFrame(&ev).DestinationGroup()
	value, err := json.Marshal(ev.Value)
	if err != nil {
		return fmt.Errorf("marshalling group value: %w", err)
	}
	return s.pub.Publish(s.topics.Group(ga.String()), value, 1, true)
}

// PublishStats implements StatsSink.
func (s *MQTTSink) PublishStats(_ context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshalling stats: %w", err)
	}
	return s.pub.Publish(s.topics.Stats(), data, 1, true)
}

// MetricsWriter is the subset of *influxdb.Client used by MetricsSink.
type MetricsWriter interface {
	WriteFrame(m influxdb.FrameMetric)
	WriteStats(m influxdb.StatsMetric)
	WriteGroupValue(m influxdb.GroupValueMetric)
}

// MetricsSink writes one point per event, one per numeric group value
// and one per service on each stats interval.
type MetricsSink struct {
	w MetricsWriter
}

// NewMetricsSink creates a sink over w.
func NewMetricsSink(w MetricsWriter) *MetricsSink {
	return &MetricsSink{w: w}
}

// Name implements Sink.
func (*MetricsSink) Name() string { return "influxdb" }

// HandleEvent implements Sink.
func (s *MetricsSink) HandleEvent(_ context.Context, ev Event) error {
	s.w.WriteFrame(influxdb.FrameMetric{
		ServiceType: serviceName(ev.Record.ServiceType),
		Status:      string(ev.Record.Status),
		Bytes:       len(ev.Record.Raw),
		Time:        ev.Record.ReceivedAt,
	})
	if ev.Value == nil {
		return nil
	}
	value, ok := ev.Value.Float()
	if !ok {
		return nil
	}
	f := groupFrame(&ev)
	ga, _ := f.DestinationGroup()
	s.w.WriteGroupValue(influxdb.GroupValueMetric{
		GroupAddress: ga.String(),
		DPT:          string(ev.Value.DPT),
		Source:       f.Source.String(),
		Value:        value,
		Time:         ev.Record.ReceivedAt,
	})
	return nil
}

// PublishStats implements StatsSink.
func (s *MetricsSink) PublishStats(_ context.Context, snap Snapshot) error {
	for _, svc := range snap.Services {
		s.w.WriteStats(influxdb.StatsMetric{
			ServiceType: svc.Name,
			Decoded:     svc.Decoded,
			Degraded:    svc.Degraded,
			Failed:      svc.Failed,
			Time:        snap.Taken,
		})
	}
	return nil
}

// WebSocket channels used by BroadcastSink.
const (
	ChannelFrames = "frames"
	ChannelStats  = "stats"
)

// Broadcaster is the subset of the API WebSocket hub used by BroadcastSink.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// BroadcastSink pushes summaries to live WebSocket subscribers.
type BroadcastSink struct {
	b Broadcaster
}

// NewBroadcastSink creates a sink over b.
func NewBroadcastSink(b Broadcaster) *BroadcastSink {
	return &BroadcastSink{b: b}
}

// Name implements Sink.
func (*BroadcastSink) Name() string { return "websocket" }

// HandleEvent implements Sink.
func (s *BroadcastSink) HandleEvent(_ context.Context, ev Event) error {
	s.b.Broadcast(ChannelFrames, Summarize(ev))
	return nil
}

// PublishStats implements StatsSink.
func (s *BroadcastSink) PublishStats(_ context.Context, snap Snapshot) error {
	s.b.Broadcast(ChannelStats, snap)
	return nil
}
