package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-ledbridge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-ledbridge/internal/infrastructure/influxdb"
)

// fakeInflux answers /ping and records line protocol posted to /api/v2/write.
type fakeInflux struct {
	*httptest.Server

	mu          sync.Mutex
	lines       []string
	query       string
	writeStatus int
}

func newFakeInflux(t *testing.T) *fakeInflux {
	t.Helper()
	f := &fakeInflux{writeStatus: http.StatusNoContent}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeInflux) serve(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping":
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
		f.mu.Lock()
		f.query = r.URL.RawQuery
		status := f.writeStatus
		if status == http.StatusNoContent {
			for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
				f.lines = append(f.lines, line)
			}
		}
		f.mu.Unlock()
		if status != http.StatusNoContent {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"code":"invalid","message":"bad line protocol"}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeInflux) snapshot() ([]string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...), f.query
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "ledbridge-test-token",
		Org:           "graylogic",
		Bucket:        "metrics",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func connect(t *testing.T, f *fakeInflux) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(context.Background(), testConfig(f.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // test cleanup
	return client
}

func TestConnect(t *testing.T) {
	f := newFakeInflux(t)
	client := connect(t, f)

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	if _, err := influxdb.Connect(context.Background(), cfg); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	f := newFakeInflux(t)
	url := f.URL
	f.Close()

	if _, err := influxdb.Connect(context.Background(), testConfig(url)); !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	f := newFakeInflux(t)
	cfg := testConfig(f.URL)
	cfg.BatchSize = -1
	cfg.FlushInterval = 0

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() with defaulted batch settings error = %v", err)
	}
	client.Close() //nolint:errcheck // test
}

func TestWriteFrameMetric(t *testing.T) {
	f := newFakeInflux(t)
	client := connect(t, f)

	ts := time.Unix(1700000000, 0)
	client.WriteFrameMetric(influxdb.FrameMetric{
		Group:     "living-room",
		Variant:   "rgbww",
		Operation: "on",
		Zone:      1,
		Sequence:  3,
		Checksum:  0x36,
		Timestamp: ts,
	})
	client.Flush()

	lines, query := f.snapshot()
	if len(lines) != 1 {
		t.Fatalf("lines = %q, want 1", lines)
	}
	line := lines[0]
	for _, want := range []string{
		influxdb.MeasurementFrames + ",",
		"group=living-room",
		"operation=on",
		"variant=rgbww",
		"checksum=54i",
		"count=1i",
		"sequence=3i",
		"zone=1i",
		" 1700000000000000000",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if !strings.Contains(query, "bucket=metrics") || !strings.Contains(query, "org=graylogic") {
		t.Errorf("write query = %q", query)
	}
}

func TestWriteErrorCallback(t *testing.T) {
	f := newFakeInflux(t)
	f.writeStatus = http.StatusBadRequest
	client := connect(t, f)

	errCh := make(chan error, 1)
	client.SetOnError(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	client.WriteFrameMetric(influxdb.FrameMetric{Group: "kitchen", Operation: "off", Zone: 2})
	client.Flush()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("callback received nil error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("write error not delivered to callback")
	}
}

func TestClose(t *testing.T) {
	f := newFakeInflux(t)
	client, err := influxdb.Connect(context.Background(), testConfig(f.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	// Dropped silently once closed.
	client.WriteFrameMetric(influxdb.FrameMetric{Group: "kitchen"})
	client.Flush()
	if lines, _ := f.snapshot(); len(lines) != 0 {
		t.Errorf("write after Close reached the server: %q", lines)
	}
}

func TestClose_Nil(t *testing.T) {
	var client influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v", err)
	}
}
