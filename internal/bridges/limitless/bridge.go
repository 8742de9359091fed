package limitless

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Bridge operation constants.
const (
	// minTopicParts is the minimum number of parts in a valid command topic.
	minTopicParts = 4

	// defaultCommandTimeout bounds a single frame send.
	defaultCommandTimeout = 5 * time.Second
)

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// TransportStats holds operational statistics of the wifi bridge session.
type TransportStats struct {
	Address        string
	FramesSent     uint64
	KeepAlivesSent uint64
	SessionsOpened uint64
	ErrorsTotal    uint64
	Connected      bool
	ConnectedSince time.Time
	LastActivity   time.Time
}

// Sender delivers frames to the wifi bridge.
//
// The sender owns the session values: frames must be built from its
// Session() snapshot and Send advances the sequence byte afterwards.
type Sender interface {
	SessionSource

	// Send writes one frame. No acknowledgement is awaited.
	Send(ctx context.Context, f Frame) error

	// IsConnected returns true while a session is established.
	IsConnected() bool

	// Stats returns transport statistics.
	Stats() TransportStats
}

// FrameRecorder receives every frame that was sent successfully.
// This is optional - if nil, the bridge operates without recording.
type FrameRecorder interface {
	RecordFrame(group Group, op Operation, f Frame)
}

// Group is a configured light group: one zone of one device variant.
type Group struct {
	ID      string
	Name    string
	Zone    int
	Variant Variant
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// BridgeID identifies this bridge in health messages. Default: "limitless".
	BridgeID string

	// Version is the software version reported in health messages.
	Version string

	// BridgeVersion is the wifi bridge protocol version. Default: 6.
	BridgeVersion int

	// Groups are the configured light groups.
	Groups []Group

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Sender is the wifi bridge transport.
	Sender Sender

	// Recorder is optional; it receives every sent frame.
	Recorder FrameRecorder

	// Logger is optional structured logger.
	Logger Logger

	// HealthInterval is how often health is published. Default: 30 seconds.
	HealthInterval time.Duration

	// CommandTimeout bounds a single send. Default: 5 seconds.
	CommandTimeout time.Duration
}

// Bridge translates Gray Logic MQTT commands into wifi bridge v6 frames.
// It handles:
//   - Receiving commands from Core via MQTT and building frames
//   - Sending frames through the transport and publishing acks and state
//   - Health reporting and graceful shutdown
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt     MQTTClient
	sender   Sender
	recorder FrameRecorder
	health   *HealthReporter
	timeout  time.Duration

	groups   map[string]Group
	commands map[string]*CommandSet

	// sendMu serialises build+send so each frame carries a fresh sequence byte.
	sendMu sync.Mutex

	commandsHandled atomic.Uint64

	// Shutdown coordination
	stopOnce  sync.Once
	ctx       context.Context    // Bridge-level context, cancelled on Stop()
	ctxCancel context.CancelFunc // Cancel function for ctx

	logger   Logger
	loggerMu sync.RWMutex
}

// NewBridge creates a new bridge instance.
// Call Start() to begin operation.
//
// Returns:
//   - *Bridge: Ready to start
//   - error: If a dependency is missing or a group is invalid
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("sender is required")
	}

	version := opts.BridgeVersion
	if version == 0 {
		version = BridgeVersion
	}
	bridgeID := opts.BridgeID
	if bridgeID == "" {
		bridgeID = Protocol
	}
	timeout := opts.CommandTimeout
	if timeout == 0 {
		timeout = defaultCommandTimeout
	}

	groups := make(map[string]Group, len(opts.Groups))
	commands := make(map[string]*CommandSet, len(opts.Groups))
	for _, g := range opts.Groups {
		if g.ID == "" {
			return nil, fmt.Errorf("group id is required")
		}
		if _, dup := groups[g.ID]; dup {
			return nil, fmt.Errorf("duplicate group id %q", g.ID)
		}
		cs, err := NewCommandSetFor(version, g.Variant.LEDType(), g.Zone, opts.Sender)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.ID, err)
		}
		groups[g.ID] = g
		commands[g.ID] = cs
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		mqtt:      opts.MQTTClient,
		sender:    opts.Sender,
		recorder:  opts.Recorder, // May be nil (optional)
		timeout:   timeout,
		groups:    groups,
		commands:  commands,
		ctx:       ctx,
		ctxCancel: ctxCancel,
		logger:    opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  bridgeID,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTTClient,
		Sender:    opts.Sender,
		Commands:  b.commandsHandled.Load,
	})
	b.health.SetGroupCount(len(groups))
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start subscribes to command topics and starts health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	commandTopic := CommandSubscribeTopic()
	if err := b.mqtt.Subscribe(commandTopic, 1, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commandTopic)

	b.health.Start(ctx)

	b.logInfo("bridge started", "groups", len(b.groups))
	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.ctxCancel()
		b.health.Stop()
		b.logInfo("bridge stopped")
	})
}

// PublishHealth publishes the current health status immediately.
// Call it after an MQTT reconnect so the retained LWT "offline" is replaced.
func (b *Bridge) PublishHealth() error {
	return b.health.PublishNow()
}

// Execute builds the frame for op on a group, sends it and publishes the
// optimistic state.
//
// Parameters:
//   - ctx: Bounds the send
//   - groupID: Configured group identifier
//   - op: Operation to perform
//   - p: Operation parameter
//
// Returns:
//   - Frame: The frame that was sent
//   - error: ErrGroupNotConfigured, a build error, or ErrSendFailed
func (b *Bridge) Execute(ctx context.Context, groupID string, op Operation, p Param) (Frame, error) {
	cs, ok := b.commands[groupID]
	if !ok {
		return Frame{}, fmt.Errorf("%w: %s", ErrGroupNotConfigured, groupID)
	}
	g := b.groups[groupID]

	frame, err := b.send(ctx, g, cs, op, p)
	if err != nil {
		return frame, err
	}
	b.publishState(g, op, p)
	return frame, nil
}

// send builds, writes and records one frame. Callers publish acks and
// state after it returns, outside sendMu.
func (b *Bridge) send(ctx context.Context, g Group, cs *CommandSet, op Operation, p Param) (Frame, error) {
	frame, err := b.buildAndSend(ctx, cs, op, p)
	if err != nil {
		return frame, err
	}

	b.commandsHandled.Add(1)
	if b.recorder != nil {
		b.recorder.RecordFrame(g, op, frame)
	}

	b.logDebug("frame sent",
		"group", g.ID,
		"operation", op.String(),
		"zone", g.Zone,
		"frame", frame.String())

	return frame, nil
}

func (b *Bridge) buildAndSend(ctx context.Context, cs *CommandSet, op Operation, p Param) (Frame, error) {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	frame, err := cs.Build(op, p)
	if err != nil {
		return Frame{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.sender.Send(ctx, frame); err != nil {
		return frame, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return frame, nil
}

// Groups returns the configured groups sorted by ID.
func (b *Bridge) Groups() []Group {
	out := make([]Group, 0, len(b.groups))
	for _, g := range b.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Group returns a configured group by ID.
func (b *Bridge) Group(id string) (Group, bool) {
	g, ok := b.groups[id]
	return g, ok
}

// handleMQTTMessage routes incoming MQTT messages.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) < minTopicParts || parts[1] != "command" {
		b.logError("invalid topic format", fmt.Errorf("topic: %s", topic))
		return
	}
	b.handleCommand(parts[len(parts)-1], payload)
}

// handleCommand processes a command message from Core.
func (b *Bridge) handleCommand(topicGroup string, payload []byte) {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logError("failed to parse command", err)
		return
	}
	if cmd.DeviceID == "" {
		cmd.DeviceID = topicGroup
	}

	b.logInfo("received command",
		"command_id", cmd.ID,
		"device_id", cmd.DeviceID,
		"command", cmd.Command)

	g, ok := b.groups[cmd.DeviceID]
	if !ok {
		b.publishAckError(cmd, 0, ErrCodeNotConfigured,
			fmt.Sprintf("group %s not configured", cmd.DeviceID))
		return
	}

	op, err := ParseOperation(cmd.Command)
	if err != nil {
		b.publishAckError(cmd, g.Zone, ErrCodeInvalidCommand,
			fmt.Sprintf("unknown command: %s", cmd.Command))
		return
	}

	p, err := ParseParam(op, cmd.Parameters)
	if err != nil {
		b.publishAckError(cmd, g.Zone, ErrCodeInvalidParameters, err.Error())
		return
	}

	frame, err := b.send(b.ctx, g, b.commands[g.ID], op, p)
	if err == nil || errors.Is(err, ErrSendFailed) {
		b.publishAck(cmd, g.Zone, frame)
	}
	if err != nil {
		b.publishAckError(cmd, g.Zone, ErrorCode(err), err.Error())
		return
	}

	b.publishState(g, op, p)
}

// ErrorCode maps an error to its ack error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedOperation):
		return ErrCodeUnsupportedOperation
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidByteValue):
		return ErrCodeInvalidParameters
	case errors.Is(err, ErrGroupNotConfigured):
		return ErrCodeNotConfigured
	case errors.Is(err, ErrSendFailed):
		return ErrCodeDeviceUnreachable
	default:
		return ErrCodeProtocolError
	}
}

// publishAck publishes an accepted acknowledgment.
func (b *Bridge) publishAck(cmd CommandMessage, zone int, f Frame) {
	b.publishJSON(AckTopic(cmd.DeviceID), NewAckMessage(cmd, zone, f), false)
}

// publishAckError publishes a failed acknowledgment.
func (b *Bridge) publishAckError(cmd CommandMessage, zone int, code, message string) {
	b.publishJSON(AckTopic(cmd.DeviceID), NewAckError(cmd, zone, code, message), false)
	b.logError("command failed",
		fmt.Errorf("code=%s message=%s", code, message))
}

// publishState publishes the optimistic state (QoS 1, retained).
func (b *Bridge) publishState(g Group, op Operation, p Param) {
	b.publishJSON(StateTopic(g.ID), NewStateMessage(g.ID, g.Zone, stateFor(op, p)), true)
}

func (b *Bridge) publishJSON(topic string, msg any, retained bool) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal message", err)
		return
	}
	if err := b.mqtt.Publish(topic, payload, 1, retained); err != nil {
		b.logError("failed to publish message", err)
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()

	if b.health != nil {
		b.health.SetLogger(logger)
	}
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// BridgeMetrics contains metrics data for the API health endpoint.
type BridgeMetrics struct {
	Connected       bool
	Status          string
	FramesSent      uint64
	CommandsHandled uint64
	Errors          uint64
	GroupsManaged   int
}

// GetMetrics returns current bridge metrics.
func (b *Bridge) GetMetrics() BridgeMetrics {
	stats := b.sender.Stats()
	status := "disconnected"
	if stats.Connected {
		status = "healthy"
	}
	return BridgeMetrics{
		Connected:       stats.Connected,
		Status:          status,
		FramesSent:      stats.FramesSent,
		CommandsHandled: b.commandsHandled.Load(),
		Errors:          stats.ErrorsTotal,
		GroupsManaged:   len(b.groups),
	}
}
