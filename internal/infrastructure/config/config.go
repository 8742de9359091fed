package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxZone is the highest zone a group may address. Zone 0 is every group
// on the bridge.
const MaxZone = 4

// Config is the root configuration structure for the LED bridge service.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Groups   []GroupConfig  `yaml:"groups"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// BridgeConfig describes the wifi bridge the service drives.
type BridgeConfig struct {
	// Host is the bridge IP address or hostname.
	Host string `yaml:"host"`

	// Port is the UDP command port. Default: 5987
	Port int `yaml:"port"`

	// Version is the bridge protocol version. Only 6 is supported.
	Version int `yaml:"version"`

	// ConnectTimeout bounds the session handshake.
	// Default: 5s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// KeepAliveInterval is how often the session is kept alive.
	// Default: 5s
	KeepAliveInterval time.Duration `yaml:"keep_alive_interval"`

	// HealthInterval is how often health is published to MQTT.
	// Default: 30s
	HealthInterval time.Duration `yaml:"health_interval"`

	// CommandTimeout bounds a single frame send.
	// Default: 2s
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// GroupConfig maps a logical light group to a bridge zone.
type GroupConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Zone int    `yaml:"zone"`

	// LEDType is one of: bridge-led, white, rgbw, rgbww.
	LEDType string `yaml:"led_type"`
}

// ledTypes are the accepted values of GroupConfig.LEDType.
var ledTypes = map[string]bool{
	"bridge-led": true,
	"white":      true,
	"rgbw":       true,
	"rgbww":      true,
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
// For example: GRAYLOGIC_BRIDGE_HOST, GRAYLOGIC_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Gray Logic",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-ledbridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Bridge: BridgeConfig{
			Port:              5987,
			Version:           6,
			ConnectTimeout:    5 * time.Second,
			KeepAliveInterval: 5 * time.Second,
			HealthInterval:    30 * time.Second,
			CommandTimeout:    2 * time.Second,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("GRAYLOGIC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYLOGIC_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Bridge
	if v := os.Getenv("GRAYLOGIC_BRIDGE_HOST"); v != "" {
		cfg.Bridge.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_BRIDGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Bridge.Port = port
		}
	}

	// Logging
	if v := os.Getenv("GRAYLOGIC_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// All problems are collected and reported together so a misconfigured
// install can be fixed in one pass.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	errs = append(errs, c.Bridge.validate()...)
	errs = append(errs, validateGroups(c.Groups)...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (b BridgeConfig) validate() []string {
	var errs []string
	if b.Host == "" {
		errs = append(errs, "bridge.host is required (set GRAYLOGIC_BRIDGE_HOST environment variable)")
	}
	if b.Port < 1 || b.Port > 65535 {
		errs = append(errs, "bridge.port must be between 1 and 65535")
	}
	if b.Version != 6 {
		errs = append(errs, fmt.Sprintf("bridge.version %d is not supported (only 6)", b.Version))
	}
	if b.KeepAliveInterval <= 0 {
		errs = append(errs, "bridge.keep_alive_interval must be positive")
	}
	if b.CommandTimeout <= 0 {
		errs = append(errs, "bridge.command_timeout must be positive")
	}
	return errs
}

func validateGroups(groups []GroupConfig) []string {
	var errs []string
	if len(groups) == 0 {
		errs = append(errs, "at least one group is required")
	}
	seen := make(map[string]bool, len(groups))
	for i, g := range groups {
		if g.ID == "" {
			errs = append(errs, fmt.Sprintf("groups[%d].id is required", i))
		} else if seen[g.ID] {
			errs = append(errs, fmt.Sprintf("groups[%d].id %q is duplicated", i, g.ID))
		}
		seen[g.ID] = true

		if g.Zone < 0 || g.Zone > MaxZone {
			errs = append(errs, fmt.Sprintf("groups[%d].zone must be between 0 and %d", i, MaxZone))
		}
		if !ledTypes[strings.ToLower(g.LEDType)] {
			errs = append(errs, fmt.Sprintf("groups[%d].led_type %q is not one of bridge-led, white, rgbw, rgbww", i, g.LEDType))
		}
	}
	return errs
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
