package source

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yashikart/gurukul-backend--sub002/internal/signal"
)

var upgrader = websocket.Upgrader{
	// The instrumented page is served from the learning platform's
	// origin, not from the bridge.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Bridge accepts interaction events pushed by the instrumented page
// over a WebSocket at /events. Messages use the replay script shape
// without at_ms; each event is stamped at receipt. One page may be
// connected at a time; the stream stays open across reconnections
// until Close.
type Bridge struct {
	logger *zap.Logger
	srv    *http.Server
	ln     net.Listener

	events chan signal.Event
	stop   chan struct{}

	mu      sync.Mutex
	claimed bool
	client  *websocket.Conn

	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

// NewBridge binds addr and starts serving. The returned bridge reports
// its bound address via Addr, so addr may use port 0 in tests.
func NewBridge(addr string, logger *zap.Logger) (*Bridge, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bridge listen: %w", err)
	}

	b := &Bridge{
		logger: logger,
		ln:     ln,
		events: make(chan signal.Event, 64),
		stop:   make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", b.handleEvents)
	b.srv = &http.Server{Handler: mux}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("bridge server failed", zap.Error(err))
		}
	}()

	logger.Info("event bridge listening", zap.String("addr", ln.Addr().String()))
	return b, nil
}

// Addr returns the bound listen address.
func (b *Bridge) Addr() string {
	return b.ln.Addr().String()
}

// Events implements Source.
func (b *Bridge) Events() <-chan signal.Event {
	return b.events
}

// Close implements Source.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		close(b.stop)
		b.mu.Lock()
		if b.client != nil {
			b.client.Close()
		}
		b.mu.Unlock()
		b.closeErr = b.srv.Close()
		b.wg.Wait()
	})
	return b.closeErr
}

func (b *Bridge) handleEvents(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	if b.claimed {
		b.mu.Unlock()
		http.Error(w, "an event client is already connected", http.StatusConflict)
		return
	}
	b.claimed = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.claimed = false
		b.client = nil
		b.mu.Unlock()
	}()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	b.mu.Lock()
	b.client = conn
	b.mu.Unlock()

	b.logger.Info("page connected", zap.String("remote", r.RemoteAddr))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-b.stop:
			default:
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					b.logger.Warn("page read failed", zap.Error(err))
				} else {
					b.logger.Info("page disconnected")
				}
			}
			return
		}

		se, err := decodeEvent(data)
		if err != nil {
			b.logger.Warn("dropping malformed event", zap.Error(err))
			continue
		}

		select {
		case <-b.stop:
			return
		case b.events <- se.Event(time.Now()):
		}
	}
}

func decodeEvent(data []byte) (ScriptEvent, error) {
	var se ScriptEvent
	if err := json.Unmarshal(data, &se); err != nil {
		return ScriptEvent{}, err
	}
	if err := se.validate(); err != nil {
		return ScriptEvent{}, err
	}
	return se, nil
}
