//go:build !linux

package source

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yashikart/gurukul-backend--sub002/internal/signal"
)

// X11 is not available on non-Linux platforms.
type X11 struct{}

// NewX11 returns an error on non-Linux platforms.
func NewX11(windowPattern string, poll time.Duration, logger *zap.Logger) (*X11, error) {
	return nil, errors.New("x11 source requires linux")
}

// Events is not implemented on non-Linux platforms.
func (s *X11) Events() <-chan signal.Event {
	return nil
}

// Close is not implemented on non-Linux platforms.
func (s *X11) Close() error {
	return nil
}
