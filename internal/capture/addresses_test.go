package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/p0l0/xknx/internal/infrastructure/logging"
)

func testRecorder(t *testing.T) *AddressRecorder {
	t.Helper()
	r := NewAddressRecorder(testRepo(t).db, logging.Discard())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(r.Stop)
	return r
}

func TestAddressRecorder(t *testing.T) {
	r := testRecorder(t)
	ctx := context.Background()

	observations := []Observation{
		{Source: "1.1.5", Group: "1/2/3", Value: "On", At: base},
		{Source: "1.1.6", Group: "1/2/3", Response: true, At: base.Add(time.Second)},
		{Source: "0.0.0", Group: "0/0/10", Value: "21.5 °C", At: base.Add(2 * time.Second)},
		{Source: "1.1.5", Group: "0/0/10", At: base.Add(3 * time.Second)},
	}
	for _, obs := range observations {
		if err := r.Record(ctx, obs); err != nil {
			t.Fatalf("Record(%+v) error = %v", obs, err)
		}
	}

	groups, err := r.Groups(ctx, 0)
	if err != nil {
		t.Fatalf("Groups() error = %v", err)
	}
	wantGroups := []GroupAddressInfo{
		{
			Address: "0/0/10", FirstSeen: base.Add(2 * time.Second), LastSeen: base.Add(3 * time.Second),
			LastSource: "1.1.5", MessageCount: 2, LastValue: "21.5 °C",
		},
		{
			Address: "1/2/3", FirstSeen: base, LastSeen: base.Add(time.Second),
			LastSource: "1.1.6", MessageCount: 2, HasReadResponse: true, LastValue: "On",
		},
	}
	if diff := cmp.Diff(wantGroups, groups); diff != "" {
		t.Errorf("Groups() mismatch (-want +got):\n%s", diff)
	}

	devices, err := r.Devices(ctx, 10)
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}
	wantDevices := []DeviceInfo{
		{Address: "1.1.5", FirstSeen: base, LastSeen: base.Add(3 * time.Second), MessageCount: 2},
		{Address: "1.1.6", FirstSeen: base.Add(time.Second), LastSeen: base.Add(time.Second), MessageCount: 1},
	}
	if diff := cmp.Diff(wantDevices, devices); diff != "" {
		t.Errorf("Devices() mismatch (-want +got):\n%s", diff)
	}

	g, d, err := r.Counts(ctx)
	if err != nil || g != 2 || d != 2 {
		t.Errorf("Counts() = %d, %d, %v, want 2, 2", g, d, err)
	}
}

func TestAddressRecorderLimit(t *testing.T) {
	r := testRecorder(t)
	ctx := context.Background()

	for i, ga := range []string{"1/0/1", "1/0/2", "1/0/3"} {
		if err := r.Record(ctx, Observation{Source: "1.1.1", Group: ga, At: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	groups, err := r.Groups(ctx, 2)
	if err != nil {
		t.Fatalf("Groups() error = %v", err)
	}
	if len(groups) != 2 || groups[0].Address != "1/0/3" {
		t.Errorf("Groups(2) = %+v, want 1/0/3 first of two", groups)
	}
}

func TestAddressRecorderInvalid(t *testing.T) {
	r := testRecorder(t)
	if err := r.Record(context.Background(), Observation{Source: "1.1.1"}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("Record() error = %v, want ErrInvalidRecord", err)
	}
}

func TestAddressRecorderStopped(t *testing.T) {
	r := testRecorder(t)
	ctx := context.Background()
	r.Stop()

	if err := r.Record(ctx, Observation{Source: "1.1.1", Group: "1/2/3"}); err != nil {
		t.Errorf("Record() after Stop error = %v", err)
	}
	if g, _, err := r.Counts(ctx); err != nil || g != 0 {
		t.Errorf("Counts() = %d, %v, want nothing recorded after Stop", g, err)
	}
}
