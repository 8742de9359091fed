package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementFrames is the measurement every sent frame is recorded under.
const MeasurementFrames = "led_frames"

// FrameMetric describes one frame sent to a wifi bridge.
type FrameMetric struct {
	Group     string
	Variant   string
	Operation string
	Zone      int
	Sequence  byte
	Checksum  byte
	Timestamp time.Time
}

// WriteFrameMetric records a sent frame.
//
// Group, variant and operation are tags; zone, sequence and checksum are
// fields, with a constant count field for easy summing. The write is
// non-blocking and a zero Timestamp means now.
//
// Example:
//
//	client.WriteFrameMetric(influxdb.FrameMetric{
//	    Group: "living-room", Variant: "rgbww", Operation: "on",
//	    Zone: 1, Checksum: 0x36,
//	})
func (c *Client) WriteFrameMetric(m FrameMetric) {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	c.writePoint(MeasurementFrames,
		map[string]string{
			"group":     m.Group,
			"variant":   m.Variant,
			"operation": m.Operation,
		},
		map[string]interface{}{
			"zone":     m.Zone,
			"sequence": int(m.Sequence),
			"checksum": int(m.Checksum),
			"count":    1,
		},
		ts,
	)
}

// writePoint queues a point. Points written while disconnected are dropped.
func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
