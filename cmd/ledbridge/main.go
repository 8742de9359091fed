// Gray Logic LED Bridge - LimitlessLED wifi bridge v6 integration
//
// This is the main entry point for the LED bridge service. It connects to
// the MQTT broker, opens a UDP session with a LimitlessLED/MiLight wifi
// bridge (v6, "iBox") and translates Gray Logic light commands into
// 22-byte v6 command frames.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-ledbridge/internal/api"
	"github.com/nerrad567/gray-logic-ledbridge/internal/bridges/limitless"
	"github.com/nerrad567/gray-logic-ledbridge/internal/ibox"
	"github.com/nerrad567/gray-logic-ledbridge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-ledbridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-ledbridge/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-ledbridge/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/ledbridge.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic LED bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	groups, err := buildGroups(cfg.Groups)
	if err != nil {
		return fmt.Errorf("loading groups: %w", err)
	}

	// The broker publishes the bridge's LWT on the health topic, so the
	// will has to be registered before the bridge exists.
	will, err := healthWill(limitless.Protocol)
	if err != nil {
		return fmt.Errorf("building MQTT will: %w", err)
	}
	mqttClient, err := mqtt.Connect(cfg.MQTT, will)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	iboxClient, err := ibox.Connect(ctx, ibox.Config{
		Host:              cfg.Bridge.Host,
		Port:              cfg.Bridge.Port,
		ConnectTimeout:    cfg.Bridge.ConnectTimeout,
		KeepAliveInterval: cfg.Bridge.KeepAliveInterval,
	})
	if err != nil {
		return fmt.Errorf("connecting to wifi bridge: %w", err)
	}
	defer func() {
		log.Info("closing wifi bridge session")
		if closeErr := iboxClient.Close(); closeErr != nil {
			log.Error("error closing wifi bridge session", "error", closeErr)
		}
	}()
	iboxClient.SetLogger(log.Component("ibox"))
	log.Info("wifi bridge session established",
		"host", cfg.Bridge.Host,
		"port", cfg.Bridge.Port,
	)

	bridge, err := startBridge(ctx, cfg, groups, mqttClient, iboxClient, influxClient, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("stopping LED bridge")
		bridge.Stop()
	}()

	// Replace the retained LWT after the broker connection comes back.
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		if pubErr := bridge.PublishHealth(); pubErr != nil {
			log.Warn("failed to republish health", "error", pubErr)
		}
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.Component("api"),
			Bridge:  bridge,
			MQTT:    mqttClient,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	if err := healthCheck(ctx, mqttClient, iboxClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal", "groups", len(groups))

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server
	// 2. LED bridge
	// 3. Wifi bridge session
	// 4. InfluxDB (if enabled)
	// 5. MQTT

	log.Info("Gray Logic LED bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildGroups converts configured groups into bridge groups.
func buildGroups(cfgs []config.GroupConfig) ([]limitless.Group, error) {
	groups := make([]limitless.Group, 0, len(cfgs))
	for _, gc := range cfgs {
		variant, err := limitless.ParseVariant(gc.LEDType)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", gc.ID, err)
		}
		groups = append(groups, limitless.Group{
			ID:      gc.ID,
			Name:    gc.Name,
			Zone:    gc.Zone,
			Variant: variant,
		})
	}
	return groups, nil
}

// healthWill returns the LWT announcing the bridge offline on its health topic.
func healthWill(bridgeID string) (*mqtt.Will, error) {
	payload, err := json.Marshal(limitless.NewLWTMessage(bridgeID))
	if err != nil {
		return nil, err
	}
	return &mqtt.Will{Topic: limitless.HealthTopic(), Payload: payload}, nil
}

// startBridge creates and starts the LED bridge.
//
// Parameters:
//   - ctx: Context for the bridge lifetime
//   - cfg: Application configuration
//   - groups: Configured light groups
//   - mqttClient: MQTT client for publishing/subscribing
//   - sender: Wifi bridge transport
//   - influxClient: Optional frame recorder target (may be nil)
//   - log: Logger instance
//
// Returns:
//   - *limitless.Bridge: Running bridge
//   - error: If the bridge cannot be created or started
func startBridge(ctx context.Context, cfg *config.Config, groups []limitless.Group, mqttClient *mqtt.Client, sender limitless.Sender, influxClient *influxdb.Client, log *logging.Logger) (*limitless.Bridge, error) {
	opts := limitless.BridgeOptions{
		BridgeID:       limitless.Protocol,
		Version:        version,
		BridgeVersion:  cfg.Bridge.Version,
		Groups:         groups,
		MQTTClient:     &mqttBridgeAdapter{client: mqttClient},
		Sender:         sender,
		Logger:         log.Component("limitless"),
		HealthInterval: cfg.Bridge.HealthInterval,
		CommandTimeout: cfg.Bridge.CommandTimeout,
	}
	// Assign only when set: a nil *influxdb.Client inside the interface
	// would not compare equal to nil.
	if influxClient != nil {
		opts.Recorder = &frameRecorder{client: influxClient}
	}

	bridge, err := limitless.NewBridge(opts)
	if err != nil {
		return nil, fmt.Errorf("creating LED bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		bridge.Stop()
		return nil, fmt.Errorf("starting LED bridge: %w", err)
	}
	log.Info("LED bridge started", "groups", len(groups))
	return bridge, nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, iboxClient *ibox.Client, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := iboxClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("wifi bridge: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the LED bridge's
// MQTTClient interface. The difference is the Subscribe handler signature:
// - Infrastructure mqtt: func(topic, payload []byte) error
// - LED bridge expects: func(topic, payload []byte)
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements limitless.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements limitless.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements limitless.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// frameWriter is the slice of the InfluxDB client used for frame metrics.
type frameWriter interface {
	WriteFrameMetric(m influxdb.FrameMetric)
}

// frameRecorder writes every sent frame to InfluxDB.
type frameRecorder struct {
	client frameWriter
}

// RecordFrame implements limitless.FrameRecorder.
func (r *frameRecorder) RecordFrame(g limitless.Group, op limitless.Operation, f limitless.Frame) {
	r.client.WriteFrameMetric(influxdb.FrameMetric{
		Group:     g.ID,
		Variant:   g.Variant.String(),
		Operation: op.String(),
		Zone:      f.Zone(),
		Sequence:  f.Command().Session.Sequence,
		Checksum:  f.Checksum(),
		Timestamp: time.Now(),
	})
}
