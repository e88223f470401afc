package config

import (
	"net/netip"
	"time"

	"github.com/p0l0/xknx/internal/dpt"
)

// Config mirrors the YAML file, one field per top-level section.
type Config struct {
	Monitor   MonitorConfig   `yaml:"monitor"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MonitorConfig contains the KNXnet/IP routing listener settings.
type MonitorConfig struct {
	// MulticastAddress is the routing multicast group. Default: "224.0.23.12"
	MulticastAddress string `yaml:"multicast_address"`

	// Port is the KNXnet/IP UDP port. Default: 3671
	Port int `yaml:"port"`

	// Interface restricts the listener to one network interface by name.
	// Empty joins the group on every multicast-capable interface.
	Interface string `yaml:"interface"`

	// QueueSize is the number of datagrams buffered between the socket and
	// the decode loop. Datagrams beyond this are dropped.
	QueueSize int `yaml:"queue_size"`

	// ReadBuffer is the largest datagram accepted, in bytes.
	ReadBuffer int `yaml:"read_buffer"`

	// StatsInterval is how often per-service counters are logged, in seconds.
	// 0 disables the periodic summary.
	StatsInterval int `yaml:"stats_interval"`

	// GroupTypes maps 3-level group addresses to datapoint types, e.g.
	// "1/2/3": "9.001". Group writes and responses to these addresses are
	// decoded into values.
	GroupTypes map[string]string `yaml:"group_types"`
}

// DatabaseConfig locates the SQLite capture store. BusyTimeout is in
// seconds.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// RetentionDays is how long captured frames are kept. 0 keeps them forever.
	RetentionDays int `yaml:"retention_days"`
}

// MQTTConfig enables the MQTT publisher.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig is optional; an empty Username connects anonymously.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig bounds the reconnect backoff, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig enables the metrics writer. FlushInterval is in seconds.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig enables the HTTP API.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	// JWTSecret enables bearer token auth on /api/v1 routes other than
	// /health. Tokens must be HS256 signed with this secret. Empty disables auth.
	JWTSecret string `yaml:"jwt_secret"`
}

// APITimeoutConfig holds http.Server timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains live frame stream settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// LoggingConfig selects level (debug, info, warn, error), format (json,
// text) and output (stdout, stderr).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MulticastGroup returns the routing endpoint as an address and port.
// It must only be called on a validated Config.
func (c *Config) MulticastGroup() netip.AddrPort {
	addr := netip.MustParseAddr(c.Monitor.MulticastAddress)
	return netip.AddrPortFrom(addr, uint16(c.Monitor.Port)) //nolint:gosec // validated 1-65535
}

// GroupTypes returns the parsed monitor.group_types mapping. It must only
// be called on a validated Config.
func (c *Config) GroupTypes() dpt.Registry {
	reg, _ := dpt.NewRegistry(c.Monitor.GroupTypes) //nolint:errcheck // validated
	return reg
}

// Retention returns how long captures are kept, or 0 for forever.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Database.RetentionDays) * 24 * time.Hour
}
