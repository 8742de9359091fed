package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "test-site"
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
bridge:
  host: "192.168.1.50"
  keep_alive_interval: 3s
groups:
  - id: "living-room"
    name: "Living Room"
    zone: 1
    led_type: "rgbww"
  - id: "hallway"
    zone: 2
    led_type: "white"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Bridge.Host != "192.168.1.50" {
		t.Errorf("Bridge.Host = %q, want %q", cfg.Bridge.Host, "192.168.1.50")
	}
	if cfg.Bridge.Port != 5987 {
		t.Errorf("Bridge.Port = %d, want default 5987", cfg.Bridge.Port)
	}
	if cfg.Bridge.KeepAliveInterval != 3*time.Second {
		t.Errorf("Bridge.KeepAliveInterval = %v, want 3s", cfg.Bridge.KeepAliveInterval)
	}
	if len(cfg.Groups) != 2 {
		t.Fatalf("len(Groups) = %d, want 2", len(cfg.Groups))
	}
	if g := cfg.Groups[0]; g.ID != "living-room" || g.Zone != 1 || g.LEDType != "rgbww" {
		t.Errorf("Groups[0] = %+v", g)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: "test-site"
bridge:
  host: "192.168.1.50"
groups:
  - id: "attic"
    zone: 7
    led_type: "rgbww"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for zone 7, got nil")
	}
	if !strings.Contains(err.Error(), "groups[0].zone") {
		t.Errorf("error %q does not name the bad zone", err)
	}
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Bridge.Host = "192.168.1.50"
	cfg.Groups = []GroupConfig{{ID: "living-room", Zone: 1, LEDType: "rgbww"}}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "all zones group", mutate: func(c *Config) { c.Groups[0].Zone = 0; c.Groups[0].LEDType = "bridge-led" }},
		{name: "upper case led type", mutate: func(c *Config) { c.Groups[0].LEDType = "RGBW" }},
		{name: "api disabled ignores port", mutate: func(c *Config) { c.API.Enabled = false; c.API.Port = 0 }},
		{name: "missing site ID", mutate: func(c *Config) { c.Site.ID = "" }, wantErr: "site.id"},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: "mqtt.qos"},
		{name: "invalid api port", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: "api.port"},
		{name: "influx without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: "influxdb.url"},
		{name: "missing bridge host", mutate: func(c *Config) { c.Bridge.Host = "" }, wantErr: "bridge.host"},
		{name: "invalid bridge port", mutate: func(c *Config) { c.Bridge.Port = 0 }, wantErr: "bridge.port"},
		{name: "unsupported version", mutate: func(c *Config) { c.Bridge.Version = 5 }, wantErr: "bridge.version"},
		{name: "zero keep-alive", mutate: func(c *Config) { c.Bridge.KeepAliveInterval = 0 }, wantErr: "keep_alive_interval"},
		{name: "zero command timeout", mutate: func(c *Config) { c.Bridge.CommandTimeout = 0 }, wantErr: "command_timeout"},
		{name: "no groups", mutate: func(c *Config) { c.Groups = nil }, wantErr: "at least one group"},
		{name: "empty group id", mutate: func(c *Config) { c.Groups[0].ID = "" }, wantErr: "groups[0].id"},
		{name: "negative zone", mutate: func(c *Config) { c.Groups[0].Zone = -1 }, wantErr: "groups[0].zone"},
		{name: "zone too high", mutate: func(c *Config) { c.Groups[0].Zone = 5 }, wantErr: "groups[0].zone"},
		{name: "unknown led type", mutate: func(c *Config) { c.Groups[0].LEDType = "rgbcct" }, wantErr: "led_type"},
		{
			name: "duplicate group id",
			mutate: func(c *Config) {
				c.Groups = append(c.Groups, GroupConfig{ID: "living-room", Zone: 2, LEDType: "white"})
			},
			wantErr: "duplicated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Site.ID = ""
	cfg.Bridge.Host = ""
	cfg.Groups[0].Zone = 9

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	for _, want := range []string{"site.id", "bridge.host", "groups[0].zone"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYLOGIC_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_API_HOST", "192.168.1.1")
	t.Setenv("GRAYLOGIC_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GRAYLOGIC_BRIDGE_HOST", "10.0.0.7")
	t.Setenv("GRAYLOGIC_BRIDGE_PORT", "6000")
	t.Setenv("GRAYLOGIC_LOGGING_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Bridge.Host != "10.0.0.7" {
		t.Errorf("Bridge.Host = %q, want %q", cfg.Bridge.Host, "10.0.0.7")
	}
	if cfg.Bridge.Port != 6000 {
		t.Errorf("Bridge.Port = %d, want 6000", cfg.Bridge.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("GRAYLOGIC_BRIDGE_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.Bridge.Port != 5987 {
		t.Errorf("Bridge.Port = %d, want 5987", cfg.Bridge.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Site.ID == "" {
		t.Error("defaultConfig should have non-empty Site.ID")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 8090 {
		t.Errorf("defaultConfig API.Port = %d, want 8090", cfg.API.Port)
	}
	if cfg.Bridge.Version != 6 || cfg.Bridge.Port != 5987 {
		t.Errorf("defaultConfig Bridge = %+v", cfg.Bridge)
	}
}
