package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/p0l0/xknx/internal/dpt"
	"github.com/p0l0/xknx/internal/knxip/cemi"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
monitor:
  multicast_address: "224.0.23.12"
  port: 3671
  interface: "eth0"
  group_types:
    "1/2/3": "1.001"
    "0/0/10": "9"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
  retention_days: 7
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
  topic_prefix: "site/knxip"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Monitor.Interface != "eth0" {
		t.Errorf("Monitor.Interface = %q, want %q", cfg.Monitor.Interface, "eth0")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.TopicPrefix != "site/knxip" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "site/knxip")
	}

	types := cfg.GroupTypes()
	if len(types) != 2 || types[cemi.GroupAddress{Main: 0, Middle: 0, Sub: 10}] != dpt.Temperature {
		t.Errorf("GroupTypes() = %v, want 2 entries with 0/0/10 as 9.001", types)
	}

	// Unset keys keep their defaults.
	if cfg.Monitor.QueueSize != 256 {
		t.Errorf("Monitor.QueueSize = %d, want default 256", cfg.Monitor.QueueSize)
	}

	if got := cfg.Retention(); got != 7*24*time.Hour {
		t.Errorf("Retention() = %v, want 168h", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
monitor:
  multicast_address: "192.168.1.10"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for unicast address, got nil")
	}
	if !strings.Contains(err.Error(), "monitor.multicast_address") {
		t.Errorf("Load() error = %v, want mention of monitor.multicast_address", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "IPv6 multicast", modify: func(c *Config) { c.Monitor.MulticastAddress = "ff02::1" }, wantErr: true},
		{name: "empty multicast", modify: func(c *Config) { c.Monitor.MulticastAddress = "" }, wantErr: true},
		{name: "port low", modify: func(c *Config) { c.Monitor.Port = 0 }, wantErr: true},
		{name: "port high", modify: func(c *Config) { c.Monitor.Port = 70000 }, wantErr: true},
		{name: "zero queue", modify: func(c *Config) { c.Monitor.QueueSize = 0 }, wantErr: true},
		{name: "tiny read buffer", modify: func(c *Config) { c.Monitor.ReadBuffer = 8 }, wantErr: true},
		{name: "negative stats interval", modify: func(c *Config) { c.Monitor.StatsInterval = -1 }, wantErr: true},
		{name: "bad group address", modify: func(c *Config) { c.Monitor.GroupTypes = map[string]string{"1/2": "1.001"} }, wantErr: true},
		{name: "unknown group type", modify: func(c *Config) { c.Monitor.GroupTypes = map[string]string{"1/2/3": "99.001"} }, wantErr: true},
		{name: "missing database path", modify: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "negative retention", modify: func(c *Config) { c.Database.RetentionDays = -1 }, wantErr: true},
		{name: "invalid QoS", modify: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{
			name: "mqtt enabled without host",
			modify: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.Broker.Host = ""
			},
			wantErr: true,
		},
		{name: "wildcard topic prefix", modify: func(c *Config) { c.MQTT.TopicPrefix = "knxip/#" }, wantErr: true},
		{
			name: "influxdb enabled without url",
			modify: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = ""
			},
			wantErr: true,
		},
		{
			name: "influxdb enabled",
			modify: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
			},
		},
		{
			name:   "api disabled ignores bad port",
			modify: func(c *Config) { c.API.Port = 0 },
		},
		{
			name: "api enabled bad port",
			modify: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 0
			},
			wantErr: true,
		},
		{
			name: "api short jwt secret",
			modify: func(c *Config) {
				c.API.Enabled = true
				c.API.JWTSecret = "short"
			},
			wantErr: true,
		},
		{
			name: "api zero ping interval",
			modify: func(c *Config) {
				c.API.Enabled = true
				c.WebSocket.PingInterval = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateJoinsErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.Path = ""
	cfg.MQTT.QoS = 5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	for _, want := range []string{"database.path", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %q, missing %q", err, want)
		}
	}
}

func TestConfig_ValidateWrapsGroupTypeError(t *testing.T) {
	cfg := defaultConfig()
	cfg.Monitor.GroupTypes = map[string]string{"1/2/3": "99.001"}

	err := cfg.Validate()
	if !errors.Is(err, dpt.ErrUnknownDPT) {
		t.Errorf("Validate() error = %v, want wrapped dpt.ErrUnknownDPT", err)
	}
}

func TestConfig_MulticastGroup(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.MulticastGroup().String(); got != "224.0.23.12:3671" {
		t.Errorf("MulticastGroup() = %q, want %q", got, "224.0.23.12:3671")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("KNXIP_MONITOR_INTERFACE", "br0")
	t.Setenv("KNXIP_MONITOR_PORT", "3700")
	t.Setenv("KNXIP_DATABASE_PATH", "/custom/path.db")
	t.Setenv("KNXIP_MQTT_HOST", "mqtt.example.com")
	t.Setenv("KNXIP_MQTT_USERNAME", "testuser")
	t.Setenv("KNXIP_MQTT_PASSWORD", "testpass")
	t.Setenv("KNXIP_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("KNXIP_API_PORT", "9090")
	t.Setenv("KNXIP_API_JWT_SECRET", "env-secret")
	t.Setenv("KNXIP_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 9090 || cfg.API.JWTSecret != "env-secret" {
		t.Errorf("API = %+v, want port 9090 and env secret", cfg.API)
	}

	if cfg.Monitor.Interface != "br0" {
		t.Errorf("Monitor.Interface = %q, want %q", cfg.Monitor.Interface, "br0")
	}

	if cfg.Monitor.Port != 3700 {
		t.Errorf("Monitor.Port = %d, want 3700", cfg.Monitor.Port)
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("KNXIP_MONITOR_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.Monitor.Port != 3671 {
		t.Errorf("Monitor.Port = %d, want default 3671", cfg.Monitor.Port)
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("KNXIP_DATABASE_PATH", "/env/path.db")

	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if cfg.Database.Path != "/env/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/env/path.db")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Enabled || cfg.InfluxDB.Enabled {
		t.Error("Default() should leave MQTT and InfluxDB disabled")
	}
}
