package cognition

import (
	"fmt"
	"time"

	"github.com/yashikart/gurukul-backend--sub002/internal/signal"
)

const (
	// Cooldown is the hard debounce after an accepted transition.
	// Evaluations inside it are skipped outright.
	Cooldown = 5 * time.Second
	// CandidacyHold is how long the sustained-focus condition must hold
	// without interruption before DEEP_FOCUS is granted.
	CandidacyHold = 15 * time.Second

	idleAfterMs           = 30_000
	offTaskClicks         = 3
	offTaskVelocity       = 2500.0
	deepFocusDwellMs      = 60_000
	deepFocusVelocity     = 300.0
	deepFocusInactivityMs = 10_000
	thinkingVelocity      = 200.0
	thinkingMinPauseMs    = 1_000
	thinkingMaxPauseMs    = 5_000
)

// Engine maps live signal snapshots to exactly one cognitive state,
// with hysteresis against flapping.
type Engine struct {
	current        State
	stateSince     time.Time
	lastTransition time.Time // zero until the first accepted transition
	candidacySince time.Time // zero while no sustained-focus candidacy accrues
	log            *transitionLog
	total          int
}

// NewEngine creates an engine in ON_TASK. logCapacity bounds the retained
// transition records; values <= 0 fall back to DefaultLogCapacity.
func NewEngine(start time.Time, logCapacity int) *Engine {
	if logCapacity <= 0 {
		logCapacity = DefaultLogCapacity
	}
	return &Engine{
		current:    StateOnTask,
		stateSince: start,
		log:        newTransitionLog(logCapacity),
	}
}

// Evaluate runs one classification pass over the snapshot. It returns the
// accepted transition, or nil when the state is unchanged, when the
// sustained-focus candidacy is still accruing, or when the evaluation
// falls inside the post-transition cooldown.
func (e *Engine) Evaluate(s signal.Snapshot, now time.Time) *Transition {
	if !e.lastTransition.IsZero() && now.Sub(e.lastTransition) < Cooldown {
		return nil
	}

	target, reason, candidate := e.classify(s, now)
	if !candidate {
		// Every branch except sustained-focus candidacy resets its progress.
		e.candidacySince = time.Time{}
	}
	if target == "" || target == e.current {
		return nil
	}

	t := Transition{
		Timestamp:       now,
		From:            e.current,
		To:              target,
		Reason:          reason,
		PriorDurationMs: now.Sub(e.stateSince).Milliseconds(),
		Signals:         s,
	}
	e.log.push(t)
	e.total++
	e.current = target
	e.stateSince = now
	e.lastTransition = now
	return &t
}

// classify walks the rule set in strict priority order, first match wins.
// An empty target means the current state holds. candidate reports whether
// the sustained-focus branch claimed this evaluation.
func (e *Engine) classify(s signal.Snapshot, now time.Time) (target State, reason string, candidate bool) {
	if !s.TabVisible {
		return StateAway, "tab hidden", false
	}
	if !s.PanelFocused {
		return StateDistracted, "panel unfocused", false
	}
	if s.InactivityMs > idleAfterMs {
		return StateIdle, fmt.Sprintf("inactive %dms", s.InactivityMs), false
	}
	if s.RapidClickCount >= offTaskClicks {
		return StateOffTask, fmt.Sprintf("%d rapid clicks", s.RapidClickCount), false
	}
	if s.MouseVelocity > offTaskVelocity {
		return StateOffTask, fmt.Sprintf("velocity %.0f px/s", s.MouseVelocity), false
	}

	if s.DwellTimeMs > deepFocusDwellMs && s.MouseVelocity < deepFocusVelocity &&
		s.InactivityMs < deepFocusInactivityMs && s.RapidClickCount == 0 {
		if e.candidacySince.IsZero() {
			e.candidacySince = now
		}
		held := now.Sub(e.candidacySince)
		if held >= CandidacyHold {
			e.candidacySince = time.Time{}
			return StateDeepFocus, fmt.Sprintf("calm engagement held %dms", held.Milliseconds()), true
		}
		// Candidacy accrues; the current state holds, no fall-through.
		return "", "", true
	}

	if s.MouseVelocity < thinkingVelocity && s.InactivityMs > thinkingMinPauseMs &&
		s.InactivityMs < thinkingMaxPauseMs && s.RapidClickCount == 0 {
		return StateThinking, fmt.Sprintf("brief pause %dms", s.InactivityMs), false
	}
	return StateOnTask, "baseline interaction", false
}

// CurrentState returns the active state.
func (e *Engine) CurrentState() State {
	return e.current
}

// StateSince returns when the active state was entered.
func (e *Engine) StateSince() time.Time {
	return e.stateSince
}

// StateDuration returns how long the active state has been held.
func (e *Engine) StateDuration(now time.Time) time.Duration {
	return now.Sub(e.stateSince)
}

// Transitions returns the retained transition records, oldest first.
// The slice is a copy; mutating it does not affect the engine.
func (e *Engine) Transitions() []Transition {
	return e.log.items()
}

// TotalTransitions returns the number of accepted transitions since start,
// including records already evicted from the bounded log.
func (e *Engine) TotalTransitions() int {
	return e.total
}
