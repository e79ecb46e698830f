// Package packet aggregates cognitive state and signal history into
// fixed-length telemetry packets with auditable time accounting.
// This package has NO external dependencies (no X11, WebSocket, OS, or
// time.Sleep). Time is always injectable via time.Time parameters.
package packet

import (
	"encoding/json"

	"github.com/yashikart/gurukul-backend--sub002/internal/cognition"
	"github.com/yashikart/gurukul-backend--sub002/internal/signal"
)

// LearnerContext carries the identity fields merged into each packet.
// Empty strings mean unknown and serialize as null.
type LearnerContext struct {
	UserID    string
	SessionID string
	LessonID  string
}

// ContextProvider supplies learner identity at emission time. It may be
// registered after the builder is constructed (late binding).
type ContextProvider interface {
	Learner() (LearnerContext, error)
}

// Packet is one emitted telemetry window. Consumers depend on this
// exact field set and ordering.
type Packet struct {
	UserID         *string         `json:"user_id"`
	SessionID      *string         `json:"session_id"`
	LessonID       *string         `json:"lesson_id"`
	Timestamp      string          `json:"timestamp"`
	CognitiveState cognition.State `json:"cognitive_state"`
	ActiveSeconds  float64         `json:"active_seconds"`
	IdleSeconds    float64         `json:"idle_seconds"`
	AwaySeconds    float64         `json:"away_seconds"`
	FocusScore     int             `json:"focus_score"`
	RawSignals     signal.Snapshot `json:"raw_signals"`
}

// Format creates the JSON payload for a packet.
func Format(p Packet) ([]byte, error) {
	return json.Marshal(p)
}

// nullable maps empty identity fields to JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
