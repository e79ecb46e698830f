package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/yashikart/gurukul-backend--sub002/internal/signal"
)

// ScriptEvent is one line of a replay script: a JSON object with the
// event kind, its offset from script start, and the kind's payload
// fields. Visibility and focus use pointers so that an explicit false
// is distinguishable from an absent field.
type ScriptEvent struct {
	AtMs           int64   `json:"at_ms"`
	Kind           string  `json:"kind"`
	X              int     `json:"x,omitempty"`
	Y              int     `json:"y,omitempty"`
	ScrollTop      float64 `json:"scroll_top,omitempty"`
	DocHeight      float64 `json:"doc_height,omitempty"`
	ViewportHeight float64 `json:"viewport_height,omitempty"`
	Visible        *bool   `json:"visible,omitempty"`
	Focused        *bool   `json:"focused,omitempty"`
}

func (se ScriptEvent) validate() error {
	switch signal.Kind(se.Kind) {
	case signal.KindPointerMove, signal.KindClick, signal.KindScroll:
	case signal.KindVisibility:
		if se.Visible == nil {
			return fmt.Errorf("visibility event missing visible field")
		}
	case signal.KindFocus:
		if se.Focused == nil {
			return fmt.Errorf("focus event missing focused field")
		}
	default:
		return fmt.Errorf("unknown event kind %q", se.Kind)
	}
	if se.AtMs < 0 {
		return fmt.Errorf("negative at_ms %d", se.AtMs)
	}
	return nil
}

// Event materializes the script line as a capture event stamped at the
// given time.
func (se ScriptEvent) Event(at time.Time) signal.Event {
	ev := signal.Event{
		Kind:           signal.Kind(se.Kind),
		Time:           at,
		X:              se.X,
		Y:              se.Y,
		ScrollTop:      se.ScrollTop,
		DocHeight:      se.DocHeight,
		ViewportHeight: se.ViewportHeight,
	}
	if se.Visible != nil {
		ev.Visible = *se.Visible
	}
	if se.Focused != nil {
		ev.Focused = *se.Focused
	}
	return ev
}

// ParseScript reads a replay script: one JSON event per line, blank
// lines and #-comments ignored, offsets non-decreasing.
func ParseScript(r io.Reader) ([]ScriptEvent, error) {
	var script []ScriptEvent
	var lastAt int64

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var se ScriptEvent
		if err := json.Unmarshal([]byte(line), &se); err != nil {
			return nil, fmt.Errorf("script line %d: %w", n, err)
		}
		if err := se.validate(); err != nil {
			return nil, fmt.Errorf("script line %d: %w", n, err)
		}
		if se.AtMs < lastAt {
			return nil, fmt.Errorf("script line %d: at_ms %d goes backwards", n, se.AtMs)
		}
		lastAt = se.AtMs
		script = append(script, se)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return script, nil
}

// Replay plays a parsed script against the wall clock, delivering each
// event at its offset divided by speed. Events are stamped at delivery,
// so speeds other than 1.0 compress or stretch the interaction timeline
// as the capture layer observes it. The event channel closes after the
// last script line.
type Replay struct {
	events    chan signal.Event
	stop      chan struct{}
	closeOnce sync.Once
}

// NewReplay starts playing the script immediately. Speeds <= 0 fall
// back to real time.
func NewReplay(script []ScriptEvent, speed float64) *Replay {
	if speed <= 0 {
		speed = 1.0
	}
	r := &Replay{
		events: make(chan signal.Event, 64),
		stop:   make(chan struct{}),
	}
	go r.play(script, speed)
	return r
}

// Events implements Source.
func (r *Replay) Events() <-chan signal.Event {
	return r.events
}

// Close implements Source.
func (r *Replay) Close() error {
	r.closeOnce.Do(func() {
		close(r.stop)
	})
	return nil
}

func (r *Replay) play(script []ScriptEvent, speed float64) {
	defer close(r.events)

	start := time.Now()
	for _, se := range script {
		due := start.Add(time.Duration(float64(se.AtMs) / speed * float64(time.Millisecond)))
		if delay := time.Until(due); delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-r.stop:
				t.Stop()
				return
			case <-t.C:
			}
		}

		select {
		case <-r.stop:
			return
		case r.events <- se.Event(time.Now()):
		}
	}
}
