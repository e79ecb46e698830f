//go:build linux

package source

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"go.uber.org/zap"

	"github.com/yashikart/gurukul-backend--sub002/internal/signal"
)

// A full focus check costs several X round trips, so it runs on every
// tenth pointer poll.
const focusEvery = 10

// X11 observes a live desktop session by polling the X server. Pointer
// position yields move events, button 1 rising edges yield clicks, and
// the active window drives visibility and focus: visibility means some
// window is active at all, focus means the active window's title or
// class matches the configured pattern.
//
// X11 cannot see page scroll offsets, so no scroll events are produced.
type X11 struct {
	x       *xgbutil.XUtil
	pattern *regexp.Regexp
	poll    time.Duration
	logger  *zap.Logger

	events    chan signal.Event
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	lastX, lastY int16
	havePointer  bool
	buttonDown   bool
	visible      bool
	focused      bool
	ticks        int
}

// NewX11 connects to the X server and starts polling. windowPattern is
// a regular expression matched against the active window's title and
// WM_CLASS.
func NewX11(windowPattern string, poll time.Duration, logger *zap.Logger) (*X11, error) {
	re, err := regexp.Compile(windowPattern)
	if err != nil {
		return nil, fmt.Errorf("window pattern: %w", err)
	}
	if poll <= 0 {
		poll = 50 * time.Millisecond
	}

	x, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	if _, err := ewmh.CurrentDesktopGet(x); err != nil {
		logger.Warn("window manager may not support EWMH", zap.Error(err))
	}

	s := &X11{
		x:       x,
		pattern: re,
		poll:    poll,
		logger:  logger,
		events:  make(chan signal.Event, 64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		// The capture layer starts from visible and focused; only
		// changes are reported.
		visible: true,
		focused: true,
	}
	go s.run()

	logger.Info("x11 source started",
		zap.String("window_pattern", windowPattern),
		zap.Duration("poll", poll))
	return s, nil
}

// Events implements Source.
func (s *X11) Events() <-chan signal.Event {
	return s.events
}

// Close implements Source.
func (s *X11) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.x.Conn().Close()
	})
	return nil
}

func (s *X11) run() {
	defer func() {
		close(s.events)
		close(s.done)
	}()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			if !s.pollPointer(now) {
				return
			}
			s.ticks++
			if s.ticks%focusEvery == 0 {
				if !s.pollFocus(now) {
					return
				}
			}
		}
	}
}

func (s *X11) pollPointer(now time.Time) bool {
	reply, err := xproto.QueryPointer(s.x.Conn(), s.x.RootWin()).Reply()
	if err != nil {
		s.logger.Debug("query pointer failed", zap.Error(err))
		return true
	}

	if !s.havePointer {
		// Establish the starting position without claiming activity.
		s.havePointer = true
		s.lastX, s.lastY = reply.RootX, reply.RootY
	} else if reply.RootX != s.lastX || reply.RootY != s.lastY {
		s.lastX, s.lastY = reply.RootX, reply.RootY
		if !s.emit(signal.Event{
			Kind: signal.KindPointerMove,
			Time: now,
			X:    int(reply.RootX),
			Y:    int(reply.RootY),
		}) {
			return false
		}
	}

	pressed := reply.Mask&uint16(xproto.ButtonMask1) != 0
	if pressed && !s.buttonDown {
		if !s.emit(signal.Event{
			Kind: signal.KindClick,
			Time: now,
			X:    int(reply.RootX),
			Y:    int(reply.RootY),
		}) {
			return false
		}
	}
	s.buttonDown = pressed
	return true
}

func (s *X11) pollFocus(now time.Time) bool {
	visible, focused := s.activeWindow()

	if visible != s.visible {
		s.visible = visible
		if !s.emit(signal.Event{Kind: signal.KindVisibility, Time: now, Visible: visible}) {
			return false
		}
	}
	if focused != s.focused {
		s.focused = focused
		if !s.emit(signal.Event{Kind: signal.KindFocus, Time: now, Focused: focused}) {
			return false
		}
	}
	return true
}

func (s *X11) activeWindow() (visible, focused bool) {
	id, err := ewmh.ActiveWindowGet(s.x)
	if err != nil || id == 0 {
		return false, false
	}

	// _NET_WM_NAME preferred, WM_NAME as fallback.
	title, err := ewmh.WmNameGet(s.x, id)
	if err != nil || title == "" {
		title, _ = icccm.WmNameGet(s.x, id)
	}
	class := ""
	if hints, err := icccm.WmClassGet(s.x, id); err == nil && hints != nil {
		class = hints.Class
	}

	return true, s.pattern.MatchString(title) || s.pattern.MatchString(class)
}

// emit delivers an event unless the source is stopping. Returns false
// once stopped.
func (s *X11) emit(ev signal.Event) bool {
	select {
	case <-s.stop:
		return false
	case s.events <- ev:
		return true
	}
}
