package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load layers path over the built-in defaults, applies KNXIP_* overrides
// and validates the result.
//
// Returns:
//   - *Config: Validated configuration
//   - error: Read, YAML or validation failure
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return finish(cfg)
}

// Default is Load without a file.
func Default() (*Config, error) {
	return finish(defaultConfig())
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Monitor.MulticastAddress = "224.0.23.12"
	cfg.Monitor.Port = 3671
	cfg.Monitor.QueueSize = 256
	cfg.Monitor.ReadBuffer = 1500
	cfg.Monitor.StatsInterval = 60

	cfg.Database.Path = "./data/knxipmon.db"
	cfg.Database.WALMode = true
	cfg.Database.BusyTimeout = 5
	cfg.Database.RetentionDays = 30

	cfg.MQTT.Broker.Host = "localhost"
	cfg.MQTT.Broker.Port = 1883
	cfg.MQTT.Broker.ClientID = "knxipmon"
	cfg.MQTT.TopicPrefix = "knxip"
	cfg.MQTT.Reconnect.InitialDelay = 1
	cfg.MQTT.Reconnect.MaxDelay = 60

	cfg.InfluxDB.Org = "knxip"
	cfg.InfluxDB.Bucket = "knxip"
	cfg.InfluxDB.BatchSize = 100
	cfg.InfluxDB.FlushInterval = 10

	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = 8080
	cfg.API.Timeouts = APITimeoutConfig{Read: 30, Write: 30, Idle: 60}

	cfg.WebSocket = WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}

	cfg.Logging = LoggingConfig{Level: "info", Format: "json", Output: "stdout"}

	return cfg
}

// envOverride copies one environment variable into cfg when it is set.
type envOverride struct {
	name  string
	apply func(cfg *Config, value string)
}

func stringField(field func(*Config) *string) func(*Config, string) {
	return func(cfg *Config, v string) { *field(cfg) = v }
}

// intField ignores values that are not integers.
func intField(field func(*Config) *int) func(*Config, string) {
	return func(cfg *Config, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			*field(cfg) = n
		}
	}
}

var envOverrides = []envOverride{
	{"KNXIP_MONITOR_INTERFACE", stringField(func(c *Config) *string { return &c.Monitor.Interface })},
	{"KNXIP_MONITOR_PORT", intField(func(c *Config) *int { return &c.Monitor.Port })},
	{"KNXIP_DATABASE_PATH", stringField(func(c *Config) *string { return &c.Database.Path })},
	{"KNXIP_MQTT_HOST", stringField(func(c *Config) *string { return &c.MQTT.Broker.Host })},
	{"KNXIP_MQTT_USERNAME", stringField(func(c *Config) *string { return &c.MQTT.Auth.Username })},
	{"KNXIP_MQTT_PASSWORD", stringField(func(c *Config) *string { return &c.MQTT.Auth.Password })},
	{"KNXIP_INFLUXDB_TOKEN", stringField(func(c *Config) *string { return &c.InfluxDB.Token })},
	{"KNXIP_API_PORT", intField(func(c *Config) *int { return &c.API.Port })},
	{"KNXIP_API_JWT_SECRET", stringField(func(c *Config) *string { return &c.API.JWTSecret })},
	{"KNXIP_LOG_LEVEL", stringField(func(c *Config) *string { return &c.Logging.Level })},
}

func applyEnvOverrides(cfg *Config) {
	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			o.apply(cfg, v)
		}
	}
}
