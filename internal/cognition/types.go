// Package cognition contains pure state-inference logic for engagement
// tracking. This package has NO external dependencies (no X11, WebSocket,
// OS, or time.Sleep). Time is always injectable via time.Time parameters.
package cognition

import (
	"time"

	"github.com/yashikart/gurukul-backend--sub002/internal/signal"
)

// State represents a coarse cognitive engagement classification.
type State string

const (
	StateOnTask     State = "ON_TASK"
	StateThinking   State = "THINKING"
	StateIdle       State = "IDLE"
	StateDistracted State = "DISTRACTED"
	StateAway       State = "AWAY"
	StateOffTask    State = "OFF_TASK"
	StateDeepFocus  State = "DEEP_FOCUS"
)

// Transition records one accepted state change.
type Transition struct {
	Timestamp time.Time
	From      State
	To        State
	// Reason names the rule that fired, with the triggering values.
	Reason string
	// PriorDurationMs is how long the previous state had been held.
	PriorDurationMs int64
	// Signals is the snapshot the decision was made from.
	Signals signal.Snapshot
}
