// Package app wires an input source, the signal capture, the inference
// engine and the packet builder into the engagement-sensor daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yashikart/gurukul-backend--sub002/internal/config"
	"github.com/yashikart/gurukul-backend--sub002/internal/packet"
	"github.com/yashikart/gurukul-backend--sub002/internal/session"
	"github.com/yashikart/gurukul-backend--sub002/internal/sink"
	"github.com/yashikart/gurukul-backend--sub002/internal/source"
	"github.com/yashikart/gurukul-backend--sub002/internal/status"
	"github.com/yashikart/gurukul-backend--sub002/internal/web"
)

// The loop runs on one master tick; evaluation and emission divide it.
const (
	PollInterval = 100 * time.Millisecond
	EvalEvery    = 10 // ticks per state evaluation (1s)
	EmitEvery    = 50 // ticks per packet emission (5s)

	// recentShown bounds the transition history handed to the status page.
	recentShown = 10
)

// App is the assembled daemon.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	provider   packet.ContextProvider
	source     source.Source
	sink       sink.Sink
	sinkStatus sink.ConnectionStatus
	tracker    *status.Tracker
}

// New builds the daemon from configuration. The source and sink are
// connected eagerly so misconfiguration fails before the loop starts.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	provider := session.NewStatic(packet.LearnerContext{
		UserID:    cfg.Identity.UserID,
		SessionID: cfg.Identity.SessionID,
		LessonID:  cfg.Identity.LessonID,
	})

	src, err := buildSource(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init source: %w", err)
	}

	snk, err := buildSink(cfg, logger)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("init sink: %w", err)
	}

	broker := ""
	if cfg.Sink == "mqtt" {
		broker = cfg.MQTT.Broker
	}
	tracker := status.NewTracker(time.Now(), status.Config{
		Source:   cfg.Source,
		Sink:     cfg.Sink,
		Broker:   broker,
		HTTPAddr: cfg.HTTPAddr,
		PollMs:   PollInterval.Milliseconds(),
		EvalMs:   (EvalEvery * PollInterval).Milliseconds(),
		EmitMs:   (EmitEvery * PollInterval).Milliseconds(),
	})

	a := &App{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		source:   src,
		sink:     snk,
		tracker:  tracker,
	}
	if cs, ok := snk.(sink.ConnectionStatus); ok {
		a.sinkStatus = cs
	}
	return a, nil
}

func buildSource(cfg *config.Config, logger *zap.Logger) (source.Source, error) {
	switch cfg.Source {
	case "x11":
		return source.NewX11(cfg.X11.WindowPattern, cfg.X11.Poll(), logger)
	case "bridge":
		return source.NewBridge(cfg.Bridge.Addr, logger)
	case "replay":
		if cfg.Replay.Path == "" {
			return nil, errors.New("replay source requires replay.path")
		}
		f, err := os.Open(cfg.Replay.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		script, err := source.ParseScript(f)
		if err != nil {
			return nil, fmt.Errorf("parse script %s: %w", cfg.Replay.Path, err)
		}
		return source.NewReplay(script, cfg.Replay.Speed), nil
	}
	return nil, fmt.Errorf("unknown source %q", cfg.Source)
}

func buildSink(cfg *config.Config, logger *zap.Logger) (sink.Sink, error) {
	switch cfg.Sink {
	case "mqtt":
		return sink.NewMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.BufferSize, logger)
	case "stdout":
		return sink.NewStdout(nil), nil
	}
	return nil, fmt.Errorf("unknown sink %q", cfg.Sink)
}

// Run publishes the startup event, starts the status server, and drives
// the loop until SIGINT or SIGTERM.
func (a *App) Run() error {
	defer a.sink.Close()
	defer a.source.Close()

	// Publish startup event with a full status snapshot.
	snap := a.tracker.Snapshot()
	startup := sink.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := a.sink.PublishSystem(startup); err != nil {
		a.logger.Warn("failed to publish startup event", zap.Error(err))
	} else {
		a.logger.Info("published startup event")
	}

	if a.cfg.HTTPAddr != "" {
		srv := web.New(a.cfg.HTTPAddr, a.tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Error("http server error", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		a.logger.Info("http status server listening", zap.String("addr", a.cfg.HTTPAddr))
	}

	a.logger.Info("started",
		zap.String("source", a.cfg.Source),
		zap.String("sink", a.cfg.Sink),
		zap.Duration("poll", PollInterval))

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return a.runLoop(time.Now, ticker.C, sigCh)
}

func (a *App) runLoop(now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	pl := newPipeline(now(), a.provider, a.cfg.TransitionLog)
	events := a.source.Events()

	for {
		select {
		case s := <-sig:
			a.logger.Info("received signal, shutting down", zap.String("signal", s.String()))
			a.publishShutdown(now(), signalName(s), pl)
			return nil

		case ev, ok := <-events:
			if !ok {
				// Finite sources close their channel when the script
				// ends. Inference and emission continue without input.
				events = nil
				a.logger.Info("event source drained")
				continue
			}
			pl.apply(ev)

		case <-tick:
			t := now()
			tr, pk := pl.tick(t)

			if tr != nil {
				a.logger.Info("state transition",
					zap.String("from", string(tr.From)),
					zap.String("to", string(tr.To)),
					zap.String("reason", tr.Reason),
					zap.Int64("prior_ms", tr.PriorDurationMs))
			}
			if pl.ticks%EvalEvery == 0 {
				a.updateTracker(pl)
			}

			if pk != nil {
				if err := a.sink.Publish(*pk); err != nil {
					a.logger.Warn("publish failed", zap.Error(err))
					// Don't crash on publish failure
				}
				a.tracker.RecordPacket(pk.FocusScore, t)
			}
		}
	}
}

func (a *App) updateTracker(pl *pipeline) {
	recent := pl.engine.Transitions()
	if len(recent) > recentShown {
		recent = recent[len(recent)-recentShown:]
	}
	a.tracker.UpdateState(pl.engine.CurrentState(), pl.engine.StateSince(), pl.engine.TotalTransitions(), recent)
	if a.sinkStatus != nil {
		a.tracker.SetSinkConnected(a.sinkStatus.IsConnected())
	}
}

func (a *App) publishShutdown(at time.Time, reason string, pl *pipeline) {
	a.updateTracker(pl)
	snap := a.tracker.Snapshot()
	event := sink.SystemEvent{
		Timestamp:  at,
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := a.sink.PublishSystem(event); err != nil {
		a.logger.Warn("failed to publish shutdown event", zap.Error(err))
	} else {
		a.logger.Info("published shutdown event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
