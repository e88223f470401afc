// Package influxdb records monitor metrics in an InfluxDB v2 bucket.
//
// Measurements:
//   - knxip_frames: one point per datagram, tagged service_type and
//     status, with count and bytes fields
//   - knxip_stats: periodic counter snapshots per service type
//   - knxip_group_values: group values decoded through a configured
//     datapoint type, tagged group_address, dpt and source
//
// Writes never block the receive loop. They are dropped silently while
// the client is closed, and a nil *Client drops everything, so callers
// running without metrics keep the same code path:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil && !errors.Is(err, influxdb.ErrDisabled) {
//	    return err
//	}
//	defer client.Close()
package influxdb
