//go:build integration

package mqtt

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// Integration tests against a real broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func connectIntegration(t *testing.T, clientID string, will *Will) *Client {
	t.Helper()
	cfg := testConfig()
	cfg.Broker.ClientID = clientID
	client, err := Connect(cfg, will)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // test cleanup
	return client
}

func TestIntegration_ConnectAndClose(t *testing.T) {
	client := connectIntegration(t, "ledbridge-int-connect", nil)

	if !client.IsConnected() {
		t.Fatal("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19998

	if _, err := Connect(cfg, nil); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestIntegration_MessageRoundtrip(t *testing.T) {
	const commandPattern = "graylogic/command/limitless/#"
	client := connectIntegration(t, "ledbridge-int-roundtrip", nil)

	topic := "graylogic/command/limitless/int-test"
	received := make(chan []byte, 1)
	err := client.Subscribe(commandPattern, 1, func(got string, payload []byte) error {
		if got == topic {
			received <- payload
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(commandPattern) {
		t.Error("subscription not tracked")
	}

	if err := client.Publish(topic, []byte(`{"command":"on"}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case payload := <-received:
		if string(payload) != `{"command":"on"}` {
			t.Errorf("payload = %s", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	if err := client.Unsubscribe(commandPattern); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Unsubscribe", client.SubscriptionCount())
	}
}

func TestIntegration_OnConnectCallback(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "ledbridge-int-callback"
	c := newClient(cfg, &Will{Topic: "graylogic/health/limitless-int", Payload: []byte(`{}`)})

	var calls atomic.Int32
	c.SetOnConnect(func() { calls.Add(1) })

	c.handleConnect()
	if calls.Load() != 1 {
		t.Errorf("OnConnect calls = %d, want 1", calls.Load())
	}
}
