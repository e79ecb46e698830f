// Package status provides a thread-safe status tracker for the engagement-sensor
// daemon. It is designed to be read by HTTP handlers and system event payloads.
package status

import (
	"sync"
	"time"

	"github.com/yashikart/gurukul-backend--sub002/internal/cognition"
)

// Config contains daemon configuration for display.
type Config struct {
	Source   string
	Sink     string
	Broker   string // MQTT broker URL (empty when the sink is stdout)
	HTTPAddr string
	PollMs   int64
	EvalMs   int64
	EmitMs   int64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released. The Recent
// slice is replaced wholesale by writers and must not be mutated.
type Snapshot struct {
	State          cognition.State
	StateSince     time.Time
	Transitions    int
	Recent         []cognition.Transition
	PacketsEmitted int
	LastFocusScore int
	LastEmitAt     time.Time
	SinkConnected  bool
	StartTime      time.Time
	Now            time.Time
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// StateDuration returns how long the current state has been held.
func (s Snapshot) StateDuration() time.Duration {
	if s.StateSince.IsZero() {
		return 0
	}
	return s.Now.Sub(s.StateSince)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
// The state starts as ON_TASK, matching the inference engine.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:      cognition.StateOnTask,
			StateSince: startTime,
			StartTime:  startTime,
			Config:     cfg,
		},
	}
}

// UpdateState sets the inferred state and transition history.
// Called from runLoop on every evaluation tick. The recent slice is stored
// as-is and must not be mutated by the caller afterwards.
func (t *Tracker) UpdateState(state cognition.State, since time.Time, total int, recent []cognition.Transition) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.StateSince = since
	t.snap.Transitions = total
	t.snap.Recent = recent
	t.mu.Unlock()
}

// RecordPacket notes that a telemetry packet was emitted.
func (t *Tracker) RecordPacket(focusScore int, at time.Time) {
	t.mu.Lock()
	t.snap.PacketsEmitted++
	t.snap.LastFocusScore = focusScore
	t.snap.LastEmitAt = at
	t.mu.Unlock()
}

// SetSinkConnected sets the sink connection status.
func (t *Tracker) SetSinkConnected(connected bool) {
	t.mu.Lock()
	t.snap.SinkConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
