// Package source delivers interaction events from concrete input
// backends. The X11 poller observes a live desktop session, the bridge
// accepts events pushed by the instrumented page over a WebSocket, and
// the replay source feeds scripted sequences for deterministic runs.
package source

import "github.com/yashikart/gurukul-backend--sub002/internal/signal"

// Source streams interaction events to the pipeline.
type Source interface {
	// Events returns the event stream. Sources with finite input
	// (replay) close the channel once it is exhausted; open-ended
	// sources keep it open until Close.
	Events() <-chan signal.Event

	// Close stops delivery and releases resources. Safe to call
	// repeatedly.
	Close() error
}
