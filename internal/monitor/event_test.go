package monitor

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/p0l0/xknx/internal/capture"
	"github.com/p0l0/xknx/internal/knxip"
)

func TestDecodeDatagram(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantType   knxip.ServiceType
		wantStatus capture.Status
		wantFrame  bool
		wantErr    error
	}{
		{
			name:       "routing indication",
			data:       routingIndication,
			wantType:   knxip.ServiceRoutingIndication,
			wantStatus: capture.StatusOK,
			wantFrame:  true,
		},
		{
			name:       "unsupported cEMI degrades",
			data:       routingIndicationBusmon,
			wantType:   knxip.ServiceRoutingIndication,
			wantStatus: capture.StatusDegraded,
			wantFrame:  true,
		},
		{
			name:       "truncated keeps service type",
			data:       truncatedIndication,
			wantType:   knxip.ServiceRoutingIndication,
			wantStatus: capture.StatusError,
			wantErr:    knxip.ErrFrameTooShort,
		},
		{
			name:       "garbage",
			data:       garbage,
			wantStatus: capture.StatusError,
			wantErr:    knxip.ErrMalformedHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := DecodeDatagram(datagram(tt.data))

			if ev.Record.ServiceType != tt.wantType {
				t.Errorf("ServiceType = %s, want %s", ev.Record.ServiceType, tt.wantType)
			}
			if ev.Record.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", ev.Record.Status, tt.wantStatus)
			}
			if (ev.Frame != nil) != tt.wantFrame {
				t.Errorf("Frame = %v, want present=%v", ev.Frame, tt.wantFrame)
			}
			if tt.wantErr != nil && !errors.Is(ev.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", ev.Err, tt.wantErr)
			}
			if tt.wantStatus != capture.StatusOK && ev.Record.Error == "" {
				t.Error("Record.Error empty for non-ok event")
			}
			if ev.Record.Source != "192.168.42.10:3671" || !ev.Record.ReceivedAt.Equal(testTime) {
				t.Errorf("Record = %+v, want source and time copied", ev.Record)
			}
		})
	}
}

func TestDecodeDatagramDegradedBody(t *testing.T) {
	ev := DecodeDatagram(datagram(routingIndicationBusmon))

	ri, ok := ev.Frame.Body.(*knxip.RoutingIndication)
	if !ok {
		t.Fatalf("Body = %T, want *knxip.RoutingIndication", ev.Frame.Body)
	}
	if ri.CEMI != nil {
		t.Errorf("CEMI = %v, want nil", ri.CEMI)
	}
	if !strings.Contains(ev.Record.Error, "cemi") {
		t.Errorf("Record.Error = %q, want the unsupported reason", ev.Record.Error)
	}
}

func TestDecodeRecord(t *testing.T) {
	rec := capture.Record{
		ID:         "cap-1",
		ReceivedAt: testTime,
		Source:     "10.1.1.1:3671",
		Raw:        routingLost,
		Status:     capture.StatusOK,
	}

	ev := DecodeRecord(rec)

	if ev.Record.ID != "cap-1" || ev.Source.String() != "10.1.1.1:3671" {
		t.Errorf("event = %+v, want ID and source from record", ev.Record)
	}
	want := &knxip.RoutingLostMessage{DeviceState: 1, LostMessages: 5}
	if diff := cmp.Diff(want, ev.Frame.Body); diff != "" {
		t.Errorf("Body mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	ev := DecodeDatagram(datagram(tunnellingRequest(42)))
	ev.Record.ID = "cap-7"

	got := Summarize(ev)
	want := FrameSummary{
		ID:          "cap-7",
		ReceivedAt:  testTime,
		Source:      "192.168.42.10:3671",
		ServiceType: "TUNNELLING_REQUEST",
		Status:      capture.StatusOK,
		Raw:         "06100420001504012a002900bce011010a03010081",
		Tunnel:      &TunnelSummary{ChannelID: 1, Sequence: 42},
		CEMI: &CEMISummary{
			Code:        "L_DATA_IND",
			Source:      "1.1.1",
			Destination: "1/2/3",
			Group:       true,
			Command:     "GroupValueWrite",
			Value:       1,
			Hops:        6,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeError(t *testing.T) {
	got := Summarize(DecodeDatagram(datagram(garbage)))

	if got.ServiceType != "UNKNOWN" || got.Status != capture.StatusError || got.Raw != "dead" {
		t.Errorf("Summarize() = %+v", got)
	}
	if got.CEMI != nil || got.Body != nil {
		t.Error("error summary carries a decoded body")
	}
}
