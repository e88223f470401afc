package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/p0l0/xknx/internal/dpt"
)

const (
	maxPort = 65535

	// minReadBuffer fits the 6-byte header and the smallest body.
	minReadBuffer = 16

	minSecretLength = 32
)

// problems collects every validation failure so one run reports them all.
type problems []error

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Errorf(format, args...))
	}
}

func validPort(n int) bool { return n >= 1 && n <= maxPort }

// Validate reports every invalid setting. Sections that are disabled are
// only checked where another section depends on them.
func (c *Config) Validate() error {
	var p problems

	group, err := netip.ParseAddr(c.Monitor.MulticastAddress)
	p.check(err == nil && group.Is4() && group.IsMulticast(),
		"monitor.multicast_address must be an IPv4 multicast address, got %q", c.Monitor.MulticastAddress)
	p.check(validPort(c.Monitor.Port), "monitor.port must be between 1 and %d", maxPort)
	p.check(c.Monitor.QueueSize > 0, "monitor.queue_size must be positive")
	p.check(c.Monitor.ReadBuffer >= minReadBuffer && c.Monitor.ReadBuffer <= maxPort,
		"monitor.read_buffer must be between %d and %d", minReadBuffer, maxPort)
	p.check(c.Monitor.StatsInterval >= 0, "monitor.stats_interval must not be negative")
	if _, err := dpt.NewRegistry(c.Monitor.GroupTypes); err != nil {
		p.check(false, "monitor.group_types: %w", err)
	}

	p.check(c.Database.Path != "", "database.path is required")
	p.check(c.Database.RetentionDays >= 0, "database.retention_days must not be negative")

	p.check(c.MQTT.QoS >= 0 && c.MQTT.QoS <= 2, "mqtt.qos must be 0, 1 or 2")
	p.check(!strings.ContainsAny(c.MQTT.TopicPrefix, "+#"), "mqtt.topic_prefix must not contain wildcards")
	if c.MQTT.Enabled {
		p.check(c.MQTT.Broker.Host != "", "mqtt.broker.host is required when mqtt is enabled")
	}

	if c.InfluxDB.Enabled {
		p.check(c.InfluxDB.URL != "", "influxdb.url is required when influxdb is enabled")
		p.check(c.InfluxDB.Bucket != "", "influxdb.bucket is required when influxdb is enabled")
	}

	if c.API.Enabled {
		p.check(validPort(c.API.Port), "api.port must be between 1 and %d", maxPort)
		p.check(c.API.JWTSecret == "" || len(c.API.JWTSecret) >= minSecretLength,
			"api.jwt_secret must be at least %d characters", minSecretLength)
		p.check(c.WebSocket.PingInterval > 0 && c.WebSocket.PongTimeout > 0,
			"websocket.ping_interval and websocket.pong_timeout must be positive")
	}

	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %w", errors.Join(p...))
}
