package mqtt

import "strings"

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "knxip"

// Topics builds the monitor's MQTT topics under a common prefix:
//
//	{prefix}/status                  retained online/offline, also the LWT
//	{prefix}/stats                   periodic per-service counters
//	{prefix}/frame/{service_type}    one message per received frame
//	{prefix}/group/{main/middle/sub} retained decoded group value
//
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct {
	prefix string
}

// NewTopics returns builders for prefix. Leading and trailing slashes are
// trimmed; an empty prefix becomes DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the normalised prefix.
func (t Topics) Prefix() string {
	return t.prefix
}

// Status returns the retained status topic.
//
// Example: knxip/status
func (t Topics) Status() string {
	return t.prefix + "/status"
}

// Stats returns the statistics topic.
//
// Example: knxip/stats
func (t Topics) Stats() string {
	return t.prefix + "/stats"
}

// Frame returns the topic for frames of one service type. The name is
// lower-cased so "ROUTING_INDICATION" becomes "routing_indication".
//
// Example: knxip/frame/routing_indication
func (t Topics) Frame(serviceType string) string {
	return t.prefix + "/frame/" + strings.ToLower(serviceType)
}

// Group returns the retained value topic for a 3-level group address.
//
// Example: knxip/group/1/2/3
func (t Topics) Group(address string) string {
	return t.prefix + "/group/" + address
}

// AllFrames returns a subscription filter matching every frame topic.
//
// Example: knxip/frame/+
func (t Topics) AllFrames() string {
	return t.prefix + "/frame/+"
}
