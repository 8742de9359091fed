// Package influxdb records LED frame metrics in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Every frame the
// bridge sends becomes one point in the led_frames measurement, tagged by
// group, variant and operation.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics off
//	}
//	defer client.Close()
//
//	client.WriteFrameMetric(influxdb.FrameMetric{Group: "kitchen", Operation: "off", Zone: 2})
//
// # Error Handling
//
// Writes are non-blocking; batch failures are delivered to the SetOnError
// callback. Connection and health check errors are returned directly.
package influxdb
