package signal

import (
	"math"
	"time"
)

// Ring sizes and derivation thresholds.
const (
	velocityPoints = 10
	hoverPoints    = 20

	// hoverMinPoints buffered samples confined to a hoverBoxPx square
	// count as one hover loop.
	hoverMinPoints = 10
	hoverBoxPx     = 50

	// Clicks inside the trailing clickWindow feed rapid_click_count once
	// at least rapidClickMin of them are present.
	clickWindow   = 2000 * time.Millisecond
	rapidClickMin = 3
)

// Capture converts raw interaction events into a smoothed Snapshot.
// Not safe for concurrent use — a single goroutine must own it.
type Capture struct {
	velRing   *pointRing
	hoverRing *pointRing
	clicks    []time.Time

	dwell       time.Duration
	inactivity  time.Duration
	velocity    float64
	scrollDepth float64
	hoverLoops  int
	rapidClicks int
	visible     bool
	focused     bool

	lastActivity time.Time
	lastPoll     time.Time
}

// NewCapture creates a Capture. The start time seeds the dwell and
// inactivity clocks; the tab is assumed visible and the panel focused
// until an event says otherwise.
func NewCapture(start time.Time) *Capture {
	return &Capture{
		velRing:      newPointRing(velocityPoints),
		hoverRing:    newPointRing(hoverPoints),
		visible:      true,
		focused:      true,
		lastActivity: start,
		lastPoll:     start,
	}
}

// Apply feeds one raw event into the snapshot. Every event counts as
// activity and resets the inactivity clock.
func (c *Capture) Apply(ev Event) {
	switch ev.Kind {
	case KindPointerMove:
		c.applyPointer(ev)
	case KindClick:
		c.applyClick(ev)
	case KindScroll:
		c.applyScroll(ev)
	case KindVisibility:
		c.visible = ev.Visible
	case KindFocus:
		c.focused = ev.Focused
	}
	c.lastActivity = ev.Time
	c.inactivity = 0
}

// applyPointer records the position in both rings, derives the
// instantaneous velocity from the last two samples, and checks for a
// hover loop. The hover counter increments on every qualifying move, not
// once per episode.
func (c *Capture) applyPointer(ev Event) {
	p := point{x: ev.X, y: ev.Y, t: ev.Time}
	c.velRing.push(p)
	c.hoverRing.push(p)

	if c.velRing.len() >= 2 {
		a := c.velRing.last(0)
		b := c.velRing.last(1)
		if dt := a.t.Sub(b.t); dt > 0 {
			dist := math.Hypot(float64(a.x-b.x), float64(a.y-b.y))
			c.velocity = math.Round(dist / dt.Seconds())
		}
	}

	if c.hoverRing.len() >= hoverMinPoints {
		if w, h, ok := c.hoverRing.bounds(); ok && w <= hoverBoxPx && h <= hoverBoxPx {
			c.hoverLoops++
		}
	}
}

// applyClick prunes the trailing window and recomputes rapid_click_count.
// The count only changes on click events; it is never decayed by a timer.
func (c *Capture) applyClick(ev Event) {
	cutoff := ev.Time.Add(-clickWindow)
	kept := c.clicks[:0]
	for _, t := range c.clicks {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.clicks = append(kept, ev.Time)

	if len(c.clicks) >= rapidClickMin {
		c.rapidClicks = len(c.clicks)
	} else {
		c.rapidClicks = 0
	}
}

func (c *Capture) applyScroll(ev Event) {
	scrollable := ev.DocHeight - ev.ViewportHeight
	if scrollable <= 0 {
		c.scrollDepth = 100
		return
	}
	depth := ev.ScrollTop / scrollable * 100
	if depth < 0 {
		depth = 0
	}
	if depth > 100 {
		depth = 100
	}
	c.scrollDepth = depth
}

// Poll advances the dwell and inactivity clocks. Call on a fixed cadence;
// dwell accrues only while the tab is visible and the panel focused.
func (c *Capture) Poll(now time.Time) {
	if c.visible && c.focused {
		if d := now.Sub(c.lastPoll); d > 0 {
			c.dwell += d
		}
	}
	c.lastPoll = now

	if d := now.Sub(c.lastActivity); d > 0 {
		c.inactivity = d
	} else {
		c.inactivity = 0
	}
}

// Signals returns a copy of the current snapshot stamped with now.
func (c *Capture) Signals(now time.Time) Snapshot {
	return Snapshot{
		DwellTimeMs:     c.dwell.Milliseconds(),
		HoverLoops:      c.hoverLoops,
		RapidClickCount: c.rapidClicks,
		ScrollDepth:     c.scrollDepth,
		MouseVelocity:   c.velocity,
		InactivityMs:    c.inactivity.Milliseconds(),
		TabVisible:      c.visible,
		PanelFocused:    c.focused,
		At:              now,
	}
}
