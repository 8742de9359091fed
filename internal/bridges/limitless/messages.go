package limitless

import (
	"encoding/json"
	"fmt"
	"time"
)

// MQTT message types exchanged between Gray Logic Core and the LED bridge.
// The envelopes follow the shared bridge interface used by every protocol bridge.

// Protocol is the protocol identifier carried in acks and state messages.
const Protocol = "limitless"

// CommandMessage is sent from Core to the bridge to control a light group.
// Topic: graylogic/command/limitless/{group_id}
type CommandMessage struct {
	// ID uniquely identifies this command for correlation with acknowledgments.
	ID string `json:"id"`

	// Timestamp is when the command was issued (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// DeviceID is the configured light group identifier.
	// When empty, the last topic segment is used.
	DeviceID string `json:"device_id"`

	// Command is the operation name ("on", "off", "white", "night_light",
	// "color", "brightness", "temperature").
	Command string `json:"command"`

	// Parameters contains command-specific values.
	// Examples:
	//   {"level": 50} or {"fraction": 0.5} for brightness
	//   {"rgb": [255, 0, 0]} or {"hex": "#ff0000"} for color
	//   {"value": 32} or {"fraction": 0.3} for temperature
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source indicates where the command originated.
	// Values: "api", "automation", "voice", "scene"
	Source string `json:"source"`
}

// AckStatus represents the acknowledgment status of a command.
type AckStatus string

const (
	// AckAccepted indicates the command was translated and handed to the transport.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command could not be executed.
	AckFailed AckStatus = "failed"
)

// AckMessage is sent from the bridge to Core to acknowledge a command.
// Topic: graylogic/ack/limitless/{group_id}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Status    AckStatus `json:"status"`
	Protocol  string    `json:"protocol"`

	// Zone is the bridge zone the group maps to (0 when unknown).
	Zone int `json:"zone"`

	// Frame is the hex encoding of the frame that was sent, if any.
	Frame string `json:"frame,omitempty"`

	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	// Code is the error code (e.g., "INVALID_PARAMETERS").
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeDeviceUnreachable    = "DEVICE_UNREACHABLE"
	ErrCodeInvalidCommand       = "INVALID_COMMAND"
	ErrCodeInvalidParameters    = "INVALID_PARAMETERS"
	ErrCodeUnsupportedOperation = "UNSUPPORTED_OPERATION"
	ErrCodeNotConfigured        = "NOT_CONFIGURED"
	ErrCodeProtocolError        = "PROTOCOL_ERROR"
)

// StateMessage is published after a frame was sent.
// The bridge cannot read lights back, so state is optimistic.
// Topic: graylogic/state/limitless/{group_id}
// QoS: 1, Retained: Yes
type StateMessage struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`

	// State is the assumed group state after the command.
	//   {"on": true}
	//   {"on": true, "level": 50}
	//   {"on": true, "mode": "color", "color": "#ff0000", "hue": 0}
	State map[string]any `json:"state"`

	Protocol string `json:"protocol"`
	Zone     int    `json:"zone"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthOffline   HealthStatus = "offline"
	HealthStarting  HealthStatus = "starting"
	HealthStopping  HealthStatus = "stopping"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthMessage reports the bridge's operational status.
// Topic: graylogic/health/limitless
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Bridge        string       `json:"bridge"`
	Timestamp     time.Time    `json:"timestamp"`
	Status        HealthStatus `json:"status"`
	Version       string       `json:"version"`
	UptimeSeconds int64        `json:"uptime_seconds"`

	// Connection describes the wifi bridge session.
	Connection *ConnectionStatus `json:"connection,omitempty"`

	Statistics *BridgeStatistics `json:"statistics,omitempty"`

	// GroupsManaged is the number of configured light groups.
	GroupsManaged int `json:"groups_managed"`

	Reason string `json:"reason,omitempty"`
}

// ConnectionStatus describes the wifi bridge session state.
type ConnectionStatus struct {
	// Status is "connected" or "disconnected".
	Status         string     `json:"status"`
	Address        string     `json:"address,omitempty"`
	ConnectedSince *time.Time `json:"connected_since,omitempty"`
}

// BridgeStatistics contains operational metrics.
type BridgeStatistics struct {
	FramesSent      uint64 `json:"frames_sent"`
	KeepAlivesSent  uint64 `json:"keep_alives_sent"`
	SessionsOpened  uint64 `json:"sessions_opened"`
	Errors          uint64 `json:"errors"`
	CommandsHandled uint64 `json:"commands_handled"`
}

// UnmarshalJSON unmarshals a CommandMessage, accepting an empty or missing timestamp.
func (m *CommandMessage) UnmarshalJSON(data []byte) error {
	type Alias CommandMessage
	aux := &struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias: (*Alias)(m),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return fmt.Errorf("unmarshal command message: %w", err)
	}
	if aux.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, aux.Timestamp)
		if err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
		m.Timestamp = t
	}
	return nil
}

// NewAckMessage creates an accepted acknowledgment for a command.
func NewAckMessage(cmd CommandMessage, zone int, frame Frame) AckMessage {
	ack := AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		DeviceID:  cmd.DeviceID,
		Status:    AckAccepted,
		Protocol:  Protocol,
		Zone:      zone,
	}
	if !frame.IsZero() {
		text, _ := frame.MarshalText() //nolint:errcheck // never fails
		ack.Frame = string(text)
	}
	return ack
}

// NewAckError creates a failed acknowledgment with error details.
func NewAckError(cmd CommandMessage, zone int, code, message string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		DeviceID:  cmd.DeviceID,
		Status:    AckFailed,
		Protocol:  Protocol,
		Zone:      zone,
		Error: &AckError{
			Code:    code,
			Message: message,
		},
	}
}

// NewStateMessage creates a state message for a group.
func NewStateMessage(groupID string, zone int, state map[string]any) StateMessage {
	return StateMessage{
		DeviceID:  groupID,
		Timestamp: time.Now().UTC(),
		State:     state,
		Protocol:  Protocol,
		Zone:      zone,
	}
}

// NewHealthMessage creates a health status message.
func NewHealthMessage(bridgeID, version string, status HealthStatus, stats TransportStats, commands uint64, groupCount int, startTime time.Time) HealthMessage {
	msg := HealthMessage{
		Bridge:        bridgeID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		GroupsManaged: groupCount,
	}

	if stats.Connected {
		msg.Connection = &ConnectionStatus{Status: "connected", Address: stats.Address}
		if !stats.ConnectedSince.IsZero() {
			since := stats.ConnectedSince
			msg.Connection.ConnectedSince = &since
		}
	} else {
		msg.Connection = &ConnectionStatus{Status: "disconnected", Address: stats.Address}
	}

	msg.Statistics = &BridgeStatistics{
		FramesSent:      stats.FramesSent,
		KeepAlivesSent:  stats.KeepAlivesSent,
		SessionsOpened:  stats.SessionsOpened,
		Errors:          stats.ErrorsTotal,
		CommandsHandled: commands,
	}

	return msg
}

// NewLWTMessage creates the Last Will and Testament published by the broker
// if the bridge disconnects unexpectedly.
func NewLWTMessage(bridgeID string) HealthMessage {
	return HealthMessage{
		Bridge:    bridgeID,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}

// TopicPrefix is the base topic for all Gray Logic messages.
const TopicPrefix = "graylogic"

// CommandTopic returns the MQTT topic for commands to a group.
// Example: graylogic/command/limitless/living-room
func CommandTopic(groupID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, Protocol, groupID)
}

// AckTopic returns the MQTT topic for command acknowledgments.
// Example: graylogic/ack/limitless/living-room
func AckTopic(groupID string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefix, Protocol, groupID)
}

// StateTopic returns the MQTT topic for state updates.
// Example: graylogic/state/limitless/living-room
func StateTopic(groupID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, Protocol, groupID)
}

// HealthTopic returns the MQTT topic for health status.
func HealthTopic() string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, Protocol)
}

// CommandSubscribeTopic returns the subscription pattern for all commands.
// Example: graylogic/command/limitless/#
func CommandSubscribeTopic() string {
	return fmt.Sprintf("%s/command/%s/#", TopicPrefix, Protocol)
}
