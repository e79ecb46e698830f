// Command engagement-sensor watches learner interaction signals, infers a
// cognitive state once per second and publishes one telemetry packet per
// five-second window.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yashikart/gurukul-backend--sub002/internal/app"
	"github.com/yashikart/gurukul-backend--sub002/internal/config"
	"github.com/yashikart/gurukul-backend--sub002/internal/packet"
	"github.com/yashikart/gurukul-backend--sub002/internal/session"
	"github.com/yashikart/gurukul-backend--sub002/internal/source"
)

var (
	cfgPath string
	verbose bool

	// Daemon flag overrides, applied on top of the config file.
	flagSource string
	flagSink   string
	flagBroker string
	flagHTTP   string

	// Replay flags.
	flagDuration time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "engagement-sensor",
	Short: "Behavioral telemetry daemon for the Gurukul learning platform",
	Long: `engagement-sensor watches passive interaction signals (pointer moves,
clicks, scrolling, tab visibility), infers a cognitive state once per
second and emits one engagement packet per five-second window.

Sources: x11 (desktop pointer polling), bridge (WebSocket page events),
replay (scripted session played in real time). Sinks: mqtt, stdout.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runDaemon,
}

var replayCmd = &cobra.Command{
	Use:   "replay [script]",
	Short: "Run a scripted session offline and print its packets",
	Long: `replay drives the full pipeline over an event script on a virtual
clock and prints every emitted packet as one JSON line on stdout. No
broker, no HTTP server, no waiting: a minute-long script returns
immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath, logger)
	if err != nil {
		return err
	}
	applyOverrides(cfg, cmd)

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	return a.Run()
}

// applyOverrides copies explicitly set daemon flags into the loaded
// config. Unset flags leave the file/env values alone.
func applyOverrides(cfg *config.Config, cmd *cobra.Command) {
	if cmd.Flags().Changed("source") {
		cfg.Source = flagSource
	}
	if cmd.Flags().Changed("sink") {
		cfg.Sink = flagSink
	}
	if cmd.Flags().Changed("broker") {
		cfg.MQTT.Broker = flagBroker
	}
	if cmd.Flags().Changed("http") {
		cfg.HTTPAddr = flagHTTP
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	script, err := source.ParseScript(f)
	if err != nil {
		return fmt.Errorf("parse script %s: %w", args[0], err)
	}

	cfg, err := config.Load(cfgPath, logger)
	if err != nil {
		return err
	}

	provider := session.NewStatic(packet.LearnerContext{
		UserID:    cfg.Identity.UserID,
		SessionID: cfg.Identity.SessionID,
		LessonID:  cfg.Identity.LessonID,
	})

	duration := flagDuration
	if duration <= 0 {
		duration = scriptSpan(script)
	}

	res := app.Simulate(time.Now(), script, duration, provider, cfg.TransitionLog)

	out := cmd.OutOrStdout()
	for _, p := range res.Packets {
		data, err := packet.Format(p)
		if err != nil {
			return fmt.Errorf("format packet: %w", err)
		}
		fmt.Fprintln(out, string(data))
	}

	logger.Info("replay finished",
		zap.Int("events", len(script)),
		zap.Duration("duration", duration),
		zap.Int("transitions", len(res.Transitions)),
		zap.Int("packets", len(res.Packets)))
	return nil
}

// scriptSpan returns the script length rounded up to whole emit windows,
// with a minimum of one window so even an empty script produces a packet.
func scriptSpan(script []source.ScriptEvent) time.Duration {
	var lastMs int64
	for _, se := range script {
		if se.AtMs > lastMs {
			lastMs = se.AtMs
		}
	}
	span := time.Duration(lastMs) * time.Millisecond
	windows := span / packet.Window
	if windows == 0 || span%packet.Window != 0 {
		windows++
	}
	return windows * packet.Window
}

func registerFlags(root, replay *cobra.Command) {
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file (default: search for engagement-sensor.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.Flags().StringVar(&flagSource, "source", "", "Event source: x11, bridge or replay (overrides config)")
	root.Flags().StringVar(&flagSink, "sink", "", "Telemetry sink: mqtt or stdout (overrides config)")
	root.Flags().StringVar(&flagBroker, "broker", "", "MQTT broker URL (overrides config)")
	root.Flags().StringVar(&flagHTTP, "http", "", "HTTP status listen address, empty disables (overrides config)")

	replay.Flags().DurationVar(&flagDuration, "duration", 0, "Simulated run length (default: script length rounded up to whole windows)")
}

func main() {
	registerFlags(rootCmd, replayCmd)
	rootCmd.AddCommand(replayCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
