package packet

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yashikart/gurukul-backend--sub002/internal/cognition"
	"github.com/yashikart/gurukul-backend--sub002/internal/signal"
)

func attentiveSnap() signal.Snapshot {
	return signal.Snapshot{
		DwellTimeMs:   45000,
		MouseVelocity: 400,
		TabVisible:    true,
		PanelFocused:  true,
	}
}

func hiddenSnap() signal.Snapshot {
	return signal.Snapshot{PanelFocused: true}
}

// fillWindow feeds one full window of 100ms samples ending exactly at
// start+Window, so a subsequent Emit at that instant adds nothing.
func fillWindow(b *Builder, state cognition.State, s signal.Snapshot, start time.Time) time.Time {
	end := start
	for i := 1; i <= int(Window/SampleInterval); i++ {
		end = start.Add(time.Duration(i) * SampleInterval)
		b.Sample(state, s, end)
	}
	return end
}

func TestSampleBucketClassification(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		state cognition.State
		s     signal.Snapshot
		// expected seconds per bucket after one full window
		active, idle, away float64
	}{
		{"away state", cognition.StateAway, hiddenSnap(), 0, 0, 5},
		{"hidden tab while not away", cognition.StateOnTask, hiddenSnap(), 0, 0, 5},
		{"idle state", cognition.StateIdle, attentiveSnap(), 0, 5, 0},
		{
			"long inactivity while not idle",
			cognition.StateOnTask,
			signal.Snapshot{InactivityMs: 31000, TabVisible: true, PanelFocused: true},
			0, 5, 0,
		},
		{"engaged", cognition.StateOnTask, attentiveSnap(), 5, 0, 0},
		{"thinking counts as active", cognition.StateThinking, attentiveSnap(), 5, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuilder(start, nil)
			end := fillWindow(b, tc.state, tc.s, start)

			p := b.Emit(tc.state, tc.s, end)
			if p.ActiveSeconds != tc.active {
				t.Errorf("active: expected %v, got %v", tc.active, p.ActiveSeconds)
			}
			if p.IdleSeconds != tc.idle {
				t.Errorf("idle: expected %v, got %v", tc.idle, p.IdleSeconds)
			}
			if p.AwaySeconds != tc.away {
				t.Errorf("away: expected %v, got %v", tc.away, p.AwaySeconds)
			}
		})
	}
}

func TestNormalizeSumsToWindow(t *testing.T) {
	cases := []struct {
		name               string
		active, idle, away time.Duration
		wantA, wantI, wantW int
	}{
		{
			"exact split needs no residual",
			2500 * time.Millisecond, 1500 * time.Millisecond, 1000 * time.Millisecond,
			25, 15, 10,
		},
		{
			"positive residual lands on largest",
			3240 * time.Millisecond, 1730 * time.Millisecond, 30 * time.Millisecond,
			33, 17, 0,
		},
		{
			"negative residual lands on largest",
			950 * time.Millisecond, 3100 * time.Millisecond, 950 * time.Millisecond,
			10, 30, 10,
		},
		{
			"tie breaks toward active",
			2450 * time.Millisecond, 2450 * time.Millisecond, 100 * time.Millisecond,
			24, 25, 1,
		},
		{
			"residual on away bucket",
			450 * time.Millisecond, 550 * time.Millisecond, 4000 * time.Millisecond,
			5, 6, 39,
		},
		{
			"empty window defaults to active",
			0, 0, 0,
			50, 0, 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, i, w := normalize(tc.active, tc.idle, tc.away)
			if a != tc.wantA || i != tc.wantI || w != tc.wantW {
				t.Errorf("expected %d/%d/%d, got %d/%d/%d", tc.wantA, tc.wantI, tc.wantW, a, i, w)
			}
			if a+i+w != windowDs {
				t.Errorf("sum invariant broken: %d", a+i+w)
			}
		})
	}
}

func TestEmitDrainsWindowCompletely(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewBuilder(start, nil)

	// First half of the window sampled as away, the rest left for the
	// emitter's own closing sample under an attentive state.
	away := hiddenSnap()
	for i := 1; i <= 25; i++ {
		b.Sample(cognition.StateAway, away, start.Add(time.Duration(i)*SampleInterval))
	}

	p1 := b.Emit(cognition.StateOnTask, attentiveSnap(), start.Add(Window))
	if p1.AwaySeconds != 2.5 || p1.ActiveSeconds != 2.5 {
		t.Errorf("expected 2.5 away / 2.5 active, got %v / %v", p1.AwaySeconds, p1.ActiveSeconds)
	}

	// The next window must start from zero: no millisecond leaks across.
	end := fillWindow(b, cognition.StateOnTask, attentiveSnap(), start.Add(Window))
	p2 := b.Emit(cognition.StateOnTask, attentiveSnap(), end)
	if p2.ActiveSeconds != 5.0 {
		t.Errorf("expected clean 5.0 active window, got %v", p2.ActiveSeconds)
	}
	if p2.IdleSeconds != 0 || p2.AwaySeconds != 0 {
		t.Errorf("expected empty idle/away, got %v / %v", p2.IdleSeconds, p2.AwaySeconds)
	}
}

func TestEmitCoversMissedSamples(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewBuilder(start, nil)

	// No intermediate samples at all: the closing sample still accounts
	// for the whole window.
	p := b.Emit(cognition.StateOnTask, attentiveSnap(), start.Add(Window))
	if p.ActiveSeconds != 5.0 {
		t.Errorf("expected 5.0 active, got %v", p.ActiveSeconds)
	}
}

func TestFocusScoreBases(t *testing.T) {
	neutral := signal.Snapshot{
		DwellTimeMs:  40000,
		TabVisible:   true,
		PanelFocused: true,
	}

	cases := []struct {
		state cognition.State
		want  int
	}{
		{cognition.StateDeepFocus, 95},
		{cognition.StateOnTask, 75},
		{cognition.StateThinking, 65},
		{cognition.StateDistracted, 30},
		{cognition.StateIdle, 10},
		{cognition.StateOffTask, 5},
		{cognition.State("UNCHARTED"), 50},
	}

	for _, tc := range cases {
		t.Run(string(tc.state), func(t *testing.T) {
			if got := focusScore(tc.state, neutral, windowDs); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestFocusScoreShortcuts(t *testing.T) {
	hidden := signal.Snapshot{DwellTimeMs: 90000, PanelFocused: true}
	if got := focusScore(cognition.StateDeepFocus, hidden, windowDs); got != 0 {
		t.Errorf("hidden tab: expected 0, got %d", got)
	}

	visible := signal.Snapshot{DwellTimeMs: 90000, TabVisible: true, PanelFocused: true}
	if got := focusScore(cognition.StateAway, visible, windowDs); got != 0 {
		t.Errorf("away state: expected 0, got %d", got)
	}
}

func TestFocusScorePenalties(t *testing.T) {
	base := signal.Snapshot{
		DwellTimeMs:  40000,
		TabVisible:   true,
		PanelFocused: true,
	}

	cases := []struct {
		name   string
		mutate func(*signal.Snapshot)
		want   int
	}{
		{"frantic pointer", func(s *signal.Snapshot) { s.MouseVelocity = 2500 }, 65},
		{"velocity exactly 2000 unpunished", func(s *signal.Snapshot) { s.MouseVelocity = 2000 }, 75},
		{"rapid clicks", func(s *signal.Snapshot) { s.RapidClickCount = 3 }, 60},
		{"shallow dwell", func(s *signal.Snapshot) { s.DwellTimeMs = 29999 }, 65},
		{"dwell exactly 30000 unpunished", func(s *signal.Snapshot) { s.DwellTimeMs = 30000 }, 75},
		{"unfocused panel", func(s *signal.Snapshot) { s.PanelFocused = false }, 55},
		{
			"penalties stack",
			func(s *signal.Snapshot) {
				s.MouseVelocity = 2500
				s.RapidClickCount = 4
				s.DwellTimeMs = 1000
				s.PanelFocused = false
			},
			20,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := base
			tc.mutate(&s)
			if got := focusScore(cognition.StateOnTask, s, windowDs); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestFocusScoreActiveFraction(t *testing.T) {
	neutral := signal.Snapshot{DwellTimeMs: 40000, TabVisible: true, PanelFocused: true}

	// 75 * 25/50 = 37.5, rounded to 38.
	if got := focusScore(cognition.StateOnTask, neutral, 25); got != 38 {
		t.Errorf("half-active window: expected 38, got %d", got)
	}
	if got := focusScore(cognition.StateOnTask, neutral, 0); got != 0 {
		t.Errorf("no active time: expected 0, got %d", got)
	}
}

func TestFocusScoreClampsAtZero(t *testing.T) {
	s := signal.Snapshot{
		DwellTimeMs:     1000,
		RapidClickCount: 5,
		TabVisible:      true,
		PanelFocused:    true,
	}
	// 5 - 15 - 10 goes negative before the clamp.
	if got := focusScore(cognition.StateOffTask, s, windowDs); got != 0 {
		t.Errorf("expected clamp to 0, got %d", got)
	}
}

type staticProvider struct {
	ctx LearnerContext
	err error
}

func (p *staticProvider) Learner() (LearnerContext, error) {
	return p.ctx, p.err
}

type panickyProvider struct{}

func (p *panickyProvider) Learner() (LearnerContext, error) {
	panic("context store gone")
}

func TestEmitIdentityFromProvider(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := &staticProvider{ctx: LearnerContext{
		UserID:    "user-7",
		SessionID: "sess-12",
		LessonID:  "lesson-3",
	}}
	b := NewBuilder(start, p)

	got := b.Emit(cognition.StateOnTask, attentiveSnap(), start.Add(Window))
	if got.UserID == nil || *got.UserID != "user-7" {
		t.Errorf("user_id: expected user-7, got %v", got.UserID)
	}
	if got.SessionID == nil || *got.SessionID != "sess-12" {
		t.Errorf("session_id: expected sess-12, got %v", got.SessionID)
	}
	if got.LessonID == nil || *got.LessonID != "lesson-3" {
		t.Errorf("lesson_id: expected lesson-3, got %v", got.LessonID)
	}
}

func TestEmitToleratesProviderFailure(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		provider ContextProvider
	}{
		{"absent", nil},
		{"erroring", &staticProvider{err: errors.New("store unavailable")}},
		{"panicking", &panickyProvider{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuilder(start, tc.provider)
			p := b.Emit(cognition.StateOnTask, attentiveSnap(), start.Add(Window))

			if p.UserID != nil || p.SessionID != nil || p.LessonID != nil {
				t.Error("expected null identity fields")
			}
			// Emission itself must have happened regardless.
			if p.ActiveSeconds+p.IdleSeconds+p.AwaySeconds != 5.0 {
				t.Error("emission skipped or corrupted by provider failure")
			}
		})
	}
}

func TestProviderLateBinding(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := NewBuilder(start, nil)

	first := b.Emit(cognition.StateOnTask, attentiveSnap(), start.Add(Window))
	if first.UserID != nil {
		t.Error("expected null user_id before provider registration")
	}

	b.SetProvider(&staticProvider{ctx: LearnerContext{UserID: "user-7", SessionID: "sess-12"}})

	second := b.Emit(cognition.StateOnTask, attentiveSnap(), start.Add(2*Window))
	if second.UserID == nil || *second.UserID != "user-7" {
		t.Errorf("expected user-7 after late binding, got %v", second.UserID)
	}
	// Unset fields within a bound context still serialize as null.
	if second.LessonID != nil {
		t.Errorf("expected null lesson_id, got %q", *second.LessonID)
	}
}

func TestEmitTimestampIsUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, ist)
	b := NewBuilder(start, nil)

	p := b.Emit(cognition.StateOnTask, attentiveSnap(), start.Add(Window))
	if p.Timestamp != "2026-01-01T06:30:05Z" {
		t.Errorf("expected UTC timestamp, got %q", p.Timestamp)
	}
	if !strings.HasSuffix(p.Timestamp, "Z") {
		t.Errorf("timestamp not UTC: %q", p.Timestamp)
	}
}
