// Package mqtt publishes monitor output to an MQTT broker.
//
// The client is publish-only. It keeps one connection with background
// reconnects and a retained status on {prefix}/status: "online" after
// every connect, "offline" on Close, and "offline" with reason
// unexpected_disconnect through the will when the process dies.
//
// Topic layout is defined by Topics. Frames and statistics are published
// with the configured QoS; decoded group values are retained so a new
// subscriber sees the last value of every address.
//
// Credentials belong in KNXIP_MQTT_PASSWORD rather than the config file,
// and broker.tls should be enabled for anything but a local broker.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishDefault(client.Topics().Frame("ROUTING_INDICATION"), payload)
package mqtt
