package packet

import (
	"math"
	"time"

	"github.com/yashikart/gurukul-backend--sub002/internal/cognition"
	"github.com/yashikart/gurukul-backend--sub002/internal/signal"
)

const (
	// Window is the fixed aggregation period per emitted packet.
	Window = 5 * time.Second
	// SampleInterval is the accounting sampler cadence.
	SampleInterval = 100 * time.Millisecond

	windowDs = 50 // deciseconds per window; reported values must sum to this

	// Mirrors the engine's own idle rule and must stay consistent with it.
	idleAfterMs = 30_000

	scoreDeepFocus  = 95
	scoreOnTask     = 75
	scoreThinking   = 65
	scoreDistracted = 30
	scoreIdle       = 10
	scoreOffTask    = 5
	scoreFallback   = 50
)

// Builder accumulates 100ms time slices into per-window buckets and
// assembles one packet per window.
type Builder struct {
	provider ContextProvider

	active time.Duration
	idle   time.Duration
	away   time.Duration

	lastSample time.Time
}

// NewBuilder creates a builder whose first window opens at start.
// provider may be nil; identity fields stay null until one is set.
func NewBuilder(start time.Time, provider ContextProvider) *Builder {
	return &Builder{
		provider:   provider,
		lastSample: start,
	}
}

// SetProvider registers or replaces the identity provider.
func (b *Builder) SetProvider(p ContextProvider) {
	b.provider = p
}

// Sample classifies the slice since the previous sample into exactly one
// bucket. Slices of zero or negative length are ignored.
func (b *Builder) Sample(state cognition.State, s signal.Snapshot, now time.Time) {
	slice := now.Sub(b.lastSample)
	if slice <= 0 {
		return
	}
	b.lastSample = now

	switch {
	case state == cognition.StateAway || !s.TabVisible:
		b.away += slice
	case state == cognition.StateIdle || s.InactivityMs > idleAfterMs:
		b.idle += slice
	default:
		b.active += slice
	}
}

// Emit closes the current window and assembles its packet. The final
// partial slice is sampled first, then the buckets drain; the next
// window's accounting starts from now with no carryover.
func (b *Builder) Emit(state cognition.State, s signal.Snapshot, now time.Time) Packet {
	b.Sample(state, s, now)

	activeDs, idleDs, awayDs := normalize(b.active, b.idle, b.away)
	score := focusScore(state, s, activeDs)
	ctx := b.lookupContext()

	b.active, b.idle, b.away = 0, 0, 0
	b.lastSample = now

	return Packet{
		UserID:         nullable(ctx.UserID),
		SessionID:      nullable(ctx.SessionID),
		LessonID:       nullable(ctx.LessonID),
		Timestamp:      now.UTC().Format(time.RFC3339),
		CognitiveState: state,
		ActiveSeconds:  float64(activeDs) / 10,
		IdleSeconds:    float64(idleDs) / 10,
		AwaySeconds:    float64(awayDs) / 10,
		FocusScore:     score,
		RawSignals:     s,
	}
}

// lookupContext resolves learner identity. A missing, failing, or
// panicking provider degrades to empty identity — emission is never
// skipped over context.
func (b *Builder) lookupContext() (ctx LearnerContext) {
	defer func() {
		_ = recover()
	}()

	if b.provider == nil {
		return LearnerContext{}
	}
	c, err := b.provider.Learner()
	if err != nil {
		return LearnerContext{}
	}
	return c
}

// normalize converts raw buckets to deciseconds and forces them to sum
// to exactly one window. Any rounding residual lands on the largest raw
// bucket (ties: active, then idle, then away).
func normalize(active, idle, away time.Duration) (activeDs, idleDs, awayDs int) {
	activeDs = roundDs(active)
	idleDs = roundDs(idle)
	awayDs = roundDs(away)

	residual := windowDs - activeDs - idleDs - awayDs
	if residual == 0 {
		return activeDs, idleDs, awayDs
	}

	switch {
	case active >= idle && active >= away:
		activeDs += residual
	case idle >= away:
		idleDs += residual
	default:
		awayDs += residual
	}
	return activeDs, idleDs, awayDs
}

func roundDs(d time.Duration) int {
	return int(math.Round(float64(d) / float64(SampleInterval)))
}

// focusScore derives the deterministic 0-100 score for one window.
func focusScore(state cognition.State, s signal.Snapshot, activeDs int) int {
	if !s.TabVisible || state == cognition.StateAway {
		return 0
	}

	var base int
	switch state {
	case cognition.StateDeepFocus:
		base = scoreDeepFocus
	case cognition.StateOnTask:
		base = scoreOnTask
	case cognition.StateThinking:
		base = scoreThinking
	case cognition.StateDistracted:
		base = scoreDistracted
	case cognition.StateIdle:
		base = scoreIdle
	case cognition.StateOffTask:
		base = scoreOffTask
	default:
		base = scoreFallback
	}

	score := float64(base)
	if s.MouseVelocity > 2000 {
		score -= 10
	}
	if s.RapidClickCount >= 3 {
		score -= 15
	}
	if s.DwellTimeMs < 30000 {
		score -= 10
	}
	if !s.PanelFocused {
		score -= 20
	}

	score *= float64(activeDs) / float64(windowDs)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}
