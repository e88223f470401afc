// Package monitor receives KNXnet/IP datagrams, decodes them and fans the
// result out to sinks.
//
// The flow is:
//
//	Receiver (UDP multicast) -> Pipeline.Process -> Stats
//	                                              -> Sinks (capture store, MQTT, InfluxDB, WebSocket)
//
// Every datagram produces exactly one Event, including datagrams that fail
// to decode. A sink error is logged and never stops the pipeline.
package monitor
