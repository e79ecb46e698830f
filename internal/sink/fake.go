package sink

import (
	"github.com/yashikart/gurukul-backend--sub002/internal/packet"
)

// Fake records published telemetry for test assertions.
type Fake struct {
	// Packets contains all telemetry packets that were published.
	Packets []packet.Packet

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFake creates a Fake sink for testing.
func NewFake() *Fake {
	return &Fake{}
}

// Publish records the telemetry packet.
func (f *Fake) Publish(p packet.Packet) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Packets = append(f.Packets, p)

	payload, err := packet.Format(p)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *Fake) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemEvent(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// IsConnected reports whether the fake sink is "connected".
func (f *Fake) IsConnected() bool {
	return f.Connected
}

// Close marks the sink as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded telemetry.
func (f *Fake) Reset() {
	f.Packets = nil
	f.Payloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
