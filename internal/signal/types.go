// Package signal maintains a live snapshot of passive interaction signals.
// This package has NO external dependencies (no X11, WebSocket, OS, or
// time.Sleep). Time is always injectable via time.Time parameters.
package signal

import "time"

// Kind identifies an interaction event type.
type Kind string

const (
	KindPointerMove Kind = "pointer_move"
	KindClick       Kind = "click"
	KindScroll      Kind = "scroll"
	KindVisibility  Kind = "visibility"
	KindFocus       Kind = "focus"
)

// Event is a single raw interaction observation delivered by an input
// source. Only the fields relevant to Kind are read.
type Event struct {
	Kind Kind
	Time time.Time

	// Pointer position for KindPointerMove and KindClick.
	X int
	Y int

	// Scroll geometry in px for KindScroll.
	ScrollTop      float64
	DocHeight      float64
	ViewportHeight float64

	// New state for KindVisibility and KindFocus.
	Visible bool
	Focused bool
}

// Snapshot is the derived signal state at a point in time.
// It is a value type — safe to use after the capture moves on.
type Snapshot struct {
	DwellTimeMs     int64   `json:"dwell_time_ms"`
	HoverLoops      int     `json:"hover_loops"`
	RapidClickCount int     `json:"rapid_click_count"`
	ScrollDepth     float64 `json:"scroll_depth"`
	MouseVelocity   float64 `json:"mouse_velocity"`
	InactivityMs    int64   `json:"inactivity_ms"`
	TabVisible      bool    `json:"tab_visible"`
	PanelFocused    bool    `json:"panel_focused"`

	// At is when the snapshot was taken. Not part of the wire shape.
	At time.Time `json:"-"`
}
