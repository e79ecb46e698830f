// Package sink delivers telemetry packets to downstream consumers with
// abstraction for testing.
package sink

import (
	"encoding/json"
	"time"

	"github.com/yashikart/gurukul-backend--sub002/internal/packet"
)

// TopicPackets is the MQTT topic for telemetry packets.
const TopicPackets = "gurukul/engagement/packets"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "gurukul/engagement/system"

// Sink receives emitted telemetry.
type Sink interface {
	// Publish delivers one packet.
	// Returns error if delivery fails (must not crash the process).
	Publish(p packet.Packet) error

	// PublishSystem delivers a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close flushes and releases the sink.
	Close() error
}

// ConnectionStatus reports whether the sink's transport is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemEvent returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SystemPayload represents the wire payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemEvent creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full
// status snapshots).
func FormatSystemEvent(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
