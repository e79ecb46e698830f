package source

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashikart/gurukul-backend--sub002/internal/signal"
)

const sampleScript = `
# warmup, then hide the tab
{"at_ms": 0, "kind": "pointer_move", "x": 100, "y": 200}
{"at_ms": 40, "kind": "click", "x": 100, "y": 200}

{"at_ms": 80, "kind": "scroll", "scroll_top": 450, "doc_height": 1000, "viewport_height": 100}
{"at_ms": 120, "kind": "visibility", "visible": false}
{"at_ms": 160, "kind": "focus", "focused": true}
`

func TestParseScript(t *testing.T) {
	script, err := ParseScript(strings.NewReader(sampleScript))
	require.NoError(t, err)
	require.Len(t, script, 5)

	assert.Equal(t, "pointer_move", script[0].Kind)
	assert.Equal(t, 100, script[0].X)
	assert.Equal(t, 200, script[0].Y)

	assert.Equal(t, int64(40), script[1].AtMs)
	assert.Equal(t, "click", script[1].Kind)

	assert.Equal(t, 450.0, script[2].ScrollTop)
	assert.Equal(t, 1000.0, script[2].DocHeight)

	require.NotNil(t, script[3].Visible)
	assert.False(t, *script[3].Visible)

	require.NotNil(t, script[4].Focused)
	assert.True(t, *script[4].Focused)
}

func TestParseScriptErrors(t *testing.T) {
	cases := []struct {
		name    string
		script  string
		wantErr string
	}{
		{
			"malformed json",
			"{\"at_ms\": 0, \"kind\": \"click\"}\nnot json",
			"line 2",
		},
		{
			"unknown kind",
			"{\"at_ms\": 0, \"kind\": \"keypress\"}",
			"unknown event kind",
		},
		{
			"negative offset",
			"{\"at_ms\": -5, \"kind\": \"click\"}",
			"negative at_ms",
		},
		{
			"offsets go backwards",
			"{\"at_ms\": 100, \"kind\": \"click\"}\n{\"at_ms\": 50, \"kind\": \"click\"}",
			"goes backwards",
		},
		{
			"visibility without flag",
			"{\"at_ms\": 0, \"kind\": \"visibility\"}",
			"missing visible",
		},
		{
			"focus without flag",
			"{\"at_ms\": 0, \"kind\": \"focus\"}",
			"missing focused",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScript(strings.NewReader(tc.script))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestScriptEventMaterialization(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	vis := false

	se := ScriptEvent{AtMs: 120, Kind: "visibility", Visible: &vis}
	ev := se.Event(at)

	assert.Equal(t, signal.KindVisibility, ev.Kind)
	assert.True(t, ev.Time.Equal(at))
	assert.False(t, ev.Visible)

	move := ScriptEvent{Kind: "pointer_move", X: 10, Y: 20}.Event(at)
	assert.Equal(t, signal.KindPointerMove, move.Kind)
	assert.Equal(t, 10, move.X)
	assert.Equal(t, 20, move.Y)
}

func recvEvent(t *testing.T, ch <-chan signal.Event) signal.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "event channel closed early")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return signal.Event{}
	}
}

func TestReplayDeliversScriptInOrder(t *testing.T) {
	script, err := ParseScript(strings.NewReader(sampleScript))
	require.NoError(t, err)

	// High speed keeps the test fast; ordering must be unaffected.
	r := NewReplay(script, 1000)
	defer r.Close()

	wantKinds := []signal.Kind{
		signal.KindPointerMove,
		signal.KindClick,
		signal.KindScroll,
		signal.KindVisibility,
		signal.KindFocus,
	}
	for i, want := range wantKinds {
		ev := recvEvent(t, r.Events())
		assert.Equalf(t, want, ev.Kind, "event %d", i)
		assert.Falsef(t, ev.Time.IsZero(), "event %d missing timestamp", i)
	}

	// Script exhausted: the stream closes.
	select {
	case _, ok := <-r.Events():
		assert.False(t, ok, "expected closed channel after last event")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after script end")
	}
}

func TestReplayCloseStopsPlayback(t *testing.T) {
	vis := false
	script := []ScriptEvent{
		{AtMs: 0, Kind: "click"},
		// Far in the future; must not hold Close up.
		{AtMs: 60_000, Kind: "visibility", Visible: &vis},
	}

	r := NewReplay(script, 1)
	recvEvent(t, r.Events())

	require.NoError(t, r.Close())
	require.NoError(t, r.Close(), "repeated Close must be a no-op")

	select {
	case _, ok := <-r.Events():
		assert.False(t, ok, "expected closed channel after Close")
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not stop after Close")
	}
}
