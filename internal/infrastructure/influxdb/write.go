package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the monitor.
const (
	MeasurementFrames = "knxip_frames"
	MeasurementStats  = "knxip_stats"
	MeasurementGroups = "knxip_group_values"
)

// FrameMetric describes one received datagram.
type FrameMetric struct {
	// ServiceType is the service type name, e.g. "ROUTING_INDICATION".
	// Datagrams whose header could not be decoded use "UNKNOWN".
	ServiceType string

	// Status is "ok", "degraded" or "error".
	Status string

	// Bytes is the datagram size on the wire.
	Bytes int

	// Time is when the datagram was received.
	Time time.Time
}

// StatsMetric is a snapshot of the counters for one service type.
type StatsMetric struct {
	ServiceType string
	Decoded     uint64
	Degraded    uint64
	Failed      uint64
	Time        time.Time
}

// GroupValueMetric is one decoded group write or response.
type GroupValueMetric struct {
	// GroupAddress in 3-level form, e.g. "1/2/3".
	GroupAddress string

	// DPT is the datapoint type used to decode Value, e.g. "9.001".
	DPT string

	// Source is the sending device's individual address.
	Source string

	Value float64
	Time  time.Time
}

// WriteFrame queues one frame point. Non-blocking; no-op when disconnected.
//
//	client.WriteFrame(influxdb.FrameMetric{
//	    ServiceType: "ROUTING_INDICATION",
//	    Status:      "ok",
//	    Bytes:       len(datagram),
//	    Time:        receivedAt,
//	})
func (c *Client) WriteFrame(m FrameMetric) {
	queue(c, framePoint, m)
}

// WriteStats queues one counter snapshot point.
func (c *Client) WriteStats(m StatsMetric) {
	queue(c, statsPoint, m)
}

// WriteGroupValue queues one decoded group value point.
func (c *Client) WriteGroupValue(m GroupValueMetric) {
	queue(c, groupValuePoint, m)
}

// queue builds the point only when it will be written.
func queue[M any](c *Client, build func(M) *write.Point, m M) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(build(m))
}

func framePoint(m FrameMetric) *write.Point {
	ts := m.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(
		MeasurementFrames,
		map[string]string{
			"service_type": m.ServiceType,
			"status":       m.Status,
		},
		map[string]interface{}{
			"count": int64(1),
			"bytes": int64(m.Bytes),
		},
		ts,
	)
}

func statsPoint(m StatsMetric) *write.Point {
	ts := m.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(
		MeasurementStats,
		map[string]string{
			"service_type": m.ServiceType,
		},
		map[string]interface{}{
			"decoded":  m.Decoded,
			"degraded": m.Degraded,
			"failed":   m.Failed,
		},
		ts,
	)
}

func groupValuePoint(m GroupValueMetric) *write.Point {
	ts := m.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(
		MeasurementGroups,
		map[string]string{
			"group_address": m.GroupAddress,
			"dpt":           m.DPT,
			"source":        m.Source,
		},
		map[string]interface{}{
			"value": m.Value,
		},
		ts,
	)
}
