package limitless

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func newTestReporter(mqtt *MockMQTTClient, sender *MockSender) *HealthReporter {
	return NewHealthReporter(HealthReporterConfig{
		BridgeID:  "limitless",
		Version:   "1.2.3",
		Interval:  time.Hour,
		Publisher: mqtt,
		Sender:    sender,
		Commands:  func() uint64 { return 7 },
	})
}

func lastHealth(t *testing.T, mqtt *MockMQTTClient) HealthMessage {
	t.Helper()
	msgs := mqtt.publishedOn(HealthTopic())
	if len(msgs) == 0 {
		t.Fatal("no health message published")
	}
	last := msgs[len(msgs)-1]
	if last.QoS != 1 || !last.Retained {
		t.Errorf("health QoS/retained = %d/%v, want 1/true", last.QoS, last.Retained)
	}
	var msg HealthMessage
	if err := json.Unmarshal(last.Payload, &msg); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	return msg
}

func TestHealthReporterDefaultInterval(t *testing.T) {
	h := NewHealthReporter(HealthReporterConfig{})
	if h.interval != defaultHealthInterval {
		t.Errorf("interval = %v, want %v", h.interval, defaultHealthInterval)
	}
}

func TestHealthReporterPublishNow(t *testing.T) {
	mqtt := NewMockMQTTClient()
	sender := NewMockSender()
	h := newTestReporter(mqtt, sender)
	h.SetGroupCount(3)

	if err := h.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	msg := lastHealth(t, mqtt)
	if msg.Status != HealthHealthy {
		t.Errorf("Status = %s, want healthy", msg.Status)
	}
	if msg.Bridge != "limitless" || msg.Version != "1.2.3" || msg.GroupsManaged != 3 {
		t.Errorf("message = %+v", msg)
	}
	if msg.Connection == nil || msg.Connection.Status != "connected" || msg.Connection.Address != "192.0.2.10:5987" {
		t.Errorf("Connection = %+v", msg.Connection)
	}
	if msg.Statistics == nil || msg.Statistics.CommandsHandled != 7 {
		t.Errorf("Statistics = %+v", msg.Statistics)
	}
}

func TestHealthReporterDegraded(t *testing.T) {
	t.Run("mqtt disconnected", func(t *testing.T) {
		mqtt := NewMockMQTTClient()
		mqtt.setConnected(false)
		h := newTestReporter(mqtt, NewMockSender())

		if err := h.PublishNow(); err != nil {
			t.Fatalf("PublishNow() error = %v", err)
		}
		msg := lastHealth(t, mqtt)
		if msg.Status != HealthDegraded || msg.Reason != "MQTT disconnected" {
			t.Errorf("status/reason = %s/%q", msg.Status, msg.Reason)
		}
	})

	t.Run("session down", func(t *testing.T) {
		mqtt := NewMockMQTTClient()
		sender := NewMockSender()
		sender.connected = false
		h := newTestReporter(mqtt, sender)

		if err := h.PublishNow(); err != nil {
			t.Fatalf("PublishNow() error = %v", err)
		}
		msg := lastHealth(t, mqtt)
		if msg.Status != HealthDegraded {
			t.Errorf("Status = %s, want degraded", msg.Status)
		}
		if msg.Connection == nil || msg.Connection.Status != "disconnected" {
			t.Errorf("Connection = %+v", msg.Connection)
		}
	})
}

func TestHealthReporterStartStop(t *testing.T) {
	mqtt := NewMockMQTTClient()
	h := newTestReporter(mqtt, NewMockSender())

	h.Start(context.Background())

	deadline := time.Now().Add(time.Second)
	for len(mqtt.publishedOn(HealthTopic())) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	h.Stop()
	h.Stop() // second call is a no-op

	if msg := lastHealth(t, mqtt); msg.Status != HealthStopping {
		t.Errorf("final status = %s, want stopping", msg.Status)
	}
}

func TestHealthReporterWithNoPublisher(t *testing.T) {
	h := NewHealthReporter(HealthReporterConfig{BridgeID: "limitless"})
	if err := h.PublishNow(); err != nil {
		t.Errorf("PublishNow() without publisher error = %v", err)
	}
}
