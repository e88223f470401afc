package mqtt

import "errors"

// Sentinel errors. Callers match them with errors.Is; the wrapped detail
// names the topic or broker involved.
var (
	// ErrNotConnected means the broker connection is down. Publishes are
	// not queued while reconnecting.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed means the first connection attempt did not succeed.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed means the broker did not acknowledge a publish in time.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrPayloadTooLarge means a payload exceeds maxPayloadSize.
	ErrPayloadTooLarge = errors.New("mqtt: payload too large")

	// ErrInvalidQoS means a QoS other than 0, 1 or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level")

	// ErrInvalidTopic means an empty publish topic or one with wildcards.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")
)
