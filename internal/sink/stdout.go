package sink

import (
	"fmt"
	"io"
	"os"

	"github.com/yashikart/gurukul-backend--sub002/internal/packet"
)

// Stdout writes telemetry as JSON lines, one message per line, for
// piping into files or other tools.
type Stdout struct {
	w io.Writer
}

// NewStdout creates a sink writing to w; nil means os.Stdout.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{w: w}
}

// Publish writes the packet as one JSON line.
func (s *Stdout) Publish(p packet.Packet) error {
	payload, err := packet.Format(p)
	if err != nil {
		return fmt.Errorf("format packet: %w", err)
	}
	_, err = fmt.Fprintf(s.w, "%s\n", payload)
	return err
}

// PublishSystem writes the system event as one JSON line.
func (s *Stdout) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemEvent(event)
	if err != nil {
		return fmt.Errorf("format system event: %w", err)
	}
	_, err = fmt.Fprintf(s.w, "%s\n", payload)
	return err
}

// IsConnected implements ConnectionStatus; stdout is always writable.
func (s *Stdout) IsConnected() bool {
	return true
}

// Close is a no-op.
func (s *Stdout) Close() error {
	return nil
}
