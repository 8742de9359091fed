package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	MQTT          *MQTTMetrics   `json:"mqtt,omitempty"`
	Bridge        BridgeMetrics  `json:"bridge"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// BridgeMetrics contains wifi bridge statistics.
type BridgeMetrics struct {
	Connected       bool   `json:"connected"`
	Status          string `json:"status"`
	FramesSent      uint64 `json:"frames_sent"`
	CommandsHandled uint64 `json:"commands_handled"`
	Errors          uint64 `json:"errors"`
	GroupsManaged   int    `json:"groups_managed"`
}

const bytesPerMB = 1024 * 1024

// handleMetrics returns runtime and bridge metrics.
//
// GET /api/v1/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	bm := s.bridge.GetMetrics()
	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / bytesPerMB,
			MemoryTotalMB: float64(memStats.TotalAlloc) / bytesPerMB,
			NumGC:         memStats.NumGC,
		},
		Bridge: BridgeMetrics{
			Connected:       bm.Connected,
			Status:          bm.Status,
			FramesSent:      bm.FramesSent,
			CommandsHandled: bm.CommandsHandled,
			Errors:          bm.Errors,
			GroupsManaged:   bm.GroupsManaged,
		},
	}
	if s.mqtt != nil {
		metrics.MQTT = &MQTTMetrics{Connected: s.mqtt.IsConnected()}
	}

	writeJSON(w, http.StatusOK, metrics)
}
