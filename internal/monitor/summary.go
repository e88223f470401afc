package monitor

import (
	"encoding/hex"
	"time"

	"github.com/p0l0/xknx/internal/capture"
	"github.com/p0l0/xknx/internal/dpt"
	"github.com/p0l0/xknx/internal/knxip"
	"github.com/p0l0/xknx/internal/knxip/cemi"
)

// FrameSummary is the JSON view of an event published to MQTT and the
// WebSocket stream and returned by the API.
type FrameSummary struct {
	ID          string         `json:"id,omitempty"`
	ReceivedAt  time.Time      `json:"received_at"`
	Source      string         `json:"source"`
	ServiceType string         `json:"service_type"`
	Status      capture.Status `json:"status"`
	Error       string         `json:"error,omitempty"`
	Raw         string         `json:"raw"`

	// Tunnel is set for tunnelling requests and acks.
	Tunnel *TunnelSummary `json:"tunnel,omitempty"`

	// CEMI is set when the frame carried a supported cEMI sub-frame.
	CEMI *CEMISummary `json:"cemi,omitempty"`

	// Body holds the decoded body for services without a cEMI sub-frame.
	Body knxip.Body `json:"body,omitempty"`
}

// TunnelSummary is the connection header of a tunnelling frame.
type TunnelSummary struct {
	ChannelID uint8  `json:"channel_id"`
	Sequence  uint8  `json:"sequence"`
	Status    string `json:"status,omitempty"`
}

// CEMISummary is a readable form of a cEMI L_Data frame.
type CEMISummary struct {
	Code        string `json:"code"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Group       bool   `json:"group"`
	Command     string `json:"command"`
	Value       uint8  `json:"value"`
	Data        string `json:"data,omitempty"`
	Hops        int    `json:"hops"`

	// Decoded is the group value when its datapoint type is known.
	Decoded *dpt.Value `json:"decoded,omitempty"`
}

// Summarize builds the JSON view of ev.
func Summarize(ev Event) FrameSummary {
	s := FrameSummary{
		ID:          ev.Record.ID,
		ReceivedAt:  ev.Record.ReceivedAt,
		Source:      ev.Record.Source,
		ServiceType: serviceName(ev.Record.ServiceType),
		Status:      ev.Record.Status,
		Error:       ev.Record.Error,
		Raw:         hex.EncodeToString(ev.Record.Raw),
	}
	if ev.Frame == nil {
		return s
	}

	switch body := ev.Frame.Body.(type) {
	case *knxip.RoutingIndication:
		s.CEMI = summarizeCEMI(body.CEMI)
	case *knxip.TunnellingRequest:
		s.Tunnel = &TunnelSummary{ChannelID: body.ChannelID, Sequence: body.Sequence}
		s.CEMI = summarizeCEMI(body.CEMI)
	case *knxip.TunnellingAck:
		s.Tunnel = &TunnelSummary{ChannelID: body.ChannelID, Sequence: body.Sequence, Status: body.Status.String()}
	default:
		s.Body = body
	}
	if s.CEMI != nil {
		s.CEMI.Decoded = ev.Value
	}
	return s
}

func summarizeCEMI(f *cemi.Frame) *CEMISummary {
	if f == nil {
		return nil
	}
	out := &CEMISummary{
		Code:        f.Code.String(),
		Source:      f.Source.String(),
		Destination: cemi.IndividualAddress(f.Destination).String(),
		Command:     f.Command.String(),
		Value:       f.Value,
		Hops:        f.Hops(),
	}
	if ga, ok := f.DestinationGroup(); ok {
		out.Destination = ga.String()
		out.Group = true
	}
	if len(f.Data) > 0 {
		out.Data = hex.EncodeToString(f.Data)
	}
	return out
}
