package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/p0l0/xknx/internal/infrastructure/config"
)

// Client publishes monitor output to one broker. It never subscribes.
//
// On every (re)connect it publishes a retained "online" status; Close
// replaces it with "offline", and the broker does the same through the
// will if the process dies. All methods are safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics

	connected atomic.Bool

	hooksMu sync.RWMutex
	hooks   connectionHooks
}

// connectionHooks are optional callbacks for connection state changes.
type connectionHooks struct {
	onConnect    func()
	onDisconnect func(err error)
}

// Connect dials the broker and waits up to connectTimeout for the first
// connection. Later drops are retried in the background by paho.
//
// Returns:
//   - *Client: Connected client
//   - error: ErrConnectionFailed when the first attempt fails or times out
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{
		cfg:    cfg,
		topics: NewTopics(cfg.TopicPrefix),
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, c.topics, cfg.Broker.ClientID)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.onConnected() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.onConnectionLost(err) })

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: %s: timeout after %v", ErrConnectionFailed, brokerURL(cfg.Broker), connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, brokerURL(cfg.Broker), err)
	}

	// onConnected may still be pending on paho's goroutine.
	c.connected.Store(true)
	return c, nil
}

// Topics returns the topic builders for the configured prefix.
func (c *Client) Topics() Topics {
	return c.topics
}

func (c *Client) onConnected() {
	c.connected.Store(true)
	c.client.Publish(c.topics.Status(), statusQoS, true, statusPayload("online", c.cfg.Broker.ClientID, ""))

	c.hooksMu.RLock()
	fn := c.hooks.onConnect
	c.hooksMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) onConnectionLost(err error) {
	c.connected.Store(false)

	c.hooksMu.RLock()
	fn := c.hooks.onDisconnect
	c.hooksMu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// Close publishes the offline status, when still connected, and
// disconnects. It never fails and is safe on a nil or unconnected client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	if c.IsConnected() {
		c.client.Publish(c.topics.Status(), statusQoS, true,
			statusPayload("offline", c.cfg.Broker.ClientID, reasonShutdown)).WaitTimeout(publishTimeout)
	}
	c.client.Disconnect(disconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// HealthCheck returns ErrNotConnected while the broker is unreachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports whether both our state and paho's say connected.
func (c *Client) IsConnected() bool {
	return c.client != nil && c.connected.Load() && c.client.IsConnected()
}

// SetOnConnect registers fn for the initial connect and every reconnect.
func (c *Client) SetOnConnect(fn func()) {
	c.hooksMu.Lock()
	c.hooks.onConnect = fn
	c.hooksMu.Unlock()
}

// SetOnDisconnect registers fn for lost connections.
func (c *Client) SetOnDisconnect(fn func(err error)) {
	c.hooksMu.Lock()
	c.hooks.onDisconnect = fn
	c.hooksMu.Unlock()
}
