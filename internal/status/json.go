package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event                string           `json:"event,omitempty"`
	Reason               string           `json:"reason,omitempty"`
	State                string           `json:"state"`
	StateDurationSeconds int64            `json:"state_duration_seconds"`
	FocusScore           int              `json:"focus_score"`
	PacketsEmitted       int              `json:"packets_emitted"`
	Transitions          int              `json:"transitions"`
	UptimeSeconds        int64            `json:"uptime_seconds"`
	StartTime            string           `json:"start_time"`
	Timestamp            string           `json:"timestamp"`
	Sink                 SinkStatus       `json:"sink"`
	Recent               []TransitionJSON `json:"recent_transitions,omitempty"`
	Config               ConfigJSON       `json:"config"`
}

// SinkStatus reports sink connection state.
type SinkStatus struct {
	Kind      string `json:"kind"`
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// TransitionJSON is the JSON representation of one state transition.
// The cognition package keeps its types wire-free; the mapping lives here.
type TransitionJSON struct {
	Timestamp       string `json:"timestamp"`
	From            string `json:"from"`
	To              string `json:"to"`
	Reason          string `json:"reason"`
	PriorDurationMs int64  `json:"prior_duration_ms"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Source   string `json:"source"`
	Sink     string `json:"sink"`
	Broker   string `json:"broker,omitempty"`
	HTTPAddr string `json:"http_addr"`
	PollMs   int64  `json:"poll_ms"`
	EvalMs   int64  `json:"eval_ms"`
	EmitMs   int64  `json:"emit_ms"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	return StatusInner{
		State:                state,
		StateDurationSeconds: int64(snap.StateDuration().Truncate(time.Second).Seconds()),
		FocusScore:           snap.LastFocusScore,
		PacketsEmitted:       snap.PacketsEmitted,
		Transitions:          snap.Transitions,
		UptimeSeconds:        int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:            snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:            snap.Now.UTC().Format(time.RFC3339),
		Sink: SinkStatus{
			Kind:      snap.Config.Sink,
			Connected: snap.SinkConnected,
			Broker:    snap.Config.Broker,
		},
		Config: ConfigJSON{
			Source:   snap.Config.Source,
			Sink:     snap.Config.Sink,
			Broker:   snap.Config.Broker,
			HTTPAddr: snap.Config.HTTPAddr,
			PollMs:   snap.Config.PollMs,
			EvalMs:   snap.Config.EvalMs,
			EmitMs:   snap.Config.EmitMs,
		},
	}
}

func buildRecent(snap Snapshot, inner *StatusInner) {
	for _, tr := range snap.Recent {
		inner.Recent = append(inner.Recent, TransitionJSON{
			Timestamp:       tr.Timestamp.UTC().Format(time.RFC3339),
			From:            string(tr.From),
			To:              string(tr.To),
			Reason:          tr.Reason,
			PriorDurationMs: tr.PriorDurationMs,
		})
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildRecent(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildRecent(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
