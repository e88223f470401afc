package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/p0l0/xknx/internal/infrastructure/config"
	"github.com/p0l0/xknx/internal/infrastructure/influxdb"
)

// fakeServer answers /ping and forwards every write body to the returned channel.
func fakeServer(t *testing.T) (*httptest.Server, <-chan string) {
	t.Helper()
	writes := make(chan string, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/api/v2/write") {
			body, _ := io.ReadAll(r.Body)
			writes <- string(body)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, writes
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "knxip",
		Bucket:        "knxip",
		BatchSize:     1,
		FlushInterval: 1,
	}
}

func waitWrite(t *testing.T, writes <-chan string) string {
	t.Helper()
	select {
	case body := <-writes:
		return body
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for write")
		return ""
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	client, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
	if client != nil {
		t.Error("Connect() returned a client while disabled")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := influxdb.Connect(testConfig("http://127.0.0.1:1"))
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	srv, _ := fakeServer(t)
	cfg := testConfig(srv.URL)
	cfg.BatchSize = 0
	cfg.FlushInterval = -5

	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
}

func TestHealthCheck(t *testing.T) {
	srv, _ := fakeServer(t)
	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestWriteFrame(t *testing.T) {
	srv, writes := fakeServer(t)
	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.WriteFrame(influxdb.FrameMetric{
		ServiceType: "ROUTING_INDICATION",
		Status:      "ok",
		Bytes:       17,
		Time:        time.Unix(1760443200, 0),
	})
	client.Flush()

	body := waitWrite(t, writes)
	for _, want := range []string{
		"knxip_frames,",
		"service_type=ROUTING_INDICATION",
		"status=ok",
		"bytes=17i",
		"count=1i",
		"1760443200000000000",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("line protocol %q missing %q", body, want)
		}
	}
}

func TestWriteStats(t *testing.T) {
	srv, writes := fakeServer(t)
	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.WriteStats(influxdb.StatsMetric{
		ServiceType: "TUNNELLING_REQUEST",
		Decoded:     5,
		Degraded:    1,
		Failed:      2,
	})
	client.Flush()

	body := waitWrite(t, writes)
	for _, want := range []string{"knxip_stats,", "service_type=TUNNELLING_REQUEST", "decoded=5u", "degraded=1u", "failed=2u"} {
		if !strings.Contains(body, want) {
			t.Errorf("line protocol %q missing %q", body, want)
		}
	}
}

func TestWriteGroupValue(t *testing.T) {
	srv, writes := fakeServer(t)
	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.WriteGroupValue(influxdb.GroupValueMetric{
		GroupAddress: "1/2/3",
		DPT:          "9.001",
		Source:       "1.1.5",
		Value:        21.5,
	})
	client.Flush()

	body := waitWrite(t, writes)
	for _, want := range []string{"knxip_group_values,", "dpt=9.001", "group_address=1/2/3", "source=1.1.5", "value=21.5"} {
		if !strings.Contains(body, want) {
			t.Errorf("line protocol %q missing %q", body, want)
		}
	}
}

func TestWritesWhenDisconnected(t *testing.T) {
	var client *influxdb.Client

	// None of these may panic on a nil client.
	client.WriteFrame(influxdb.FrameMetric{ServiceType: "SEARCH_REQUEST"})
	client.WriteStats(influxdb.StatsMetric{ServiceType: "SEARCH_REQUEST"})
	client.WriteGroupValue(influxdb.GroupValueMetric{GroupAddress: "1/2/3"})
	client.Flush()

	if client.IsConnected() {
		t.Error("IsConnected() = true for nil client")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestClose(t *testing.T) {
	srv, _ := fakeServer(t)
	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	client.WriteFrame(influxdb.FrameMetric{ServiceType: "SEARCH_REQUEST"})
}

func TestClose_Nil(t *testing.T) {
	var client *influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}
