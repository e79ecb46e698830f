// Package config loads daemon configuration from YAML files and
// GURUKUL_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// IdentityConfig pins the learner identity for emitted packets.
// An empty session_id is replaced with a random one at startup.
type IdentityConfig struct {
	UserID    string `mapstructure:"user_id"`
	SessionID string `mapstructure:"session_id"`
	LessonID  string `mapstructure:"lesson_id"`
}

type MQTTConfig struct {
	Broker     string `mapstructure:"broker"`
	ClientID   string `mapstructure:"client_id"`
	BufferSize int    `mapstructure:"buffer_size"`
}

type X11Config struct {
	WindowPattern string `mapstructure:"window_pattern"`
	PollMs        int    `mapstructure:"poll_ms"`
}

type BridgeConfig struct {
	Addr string `mapstructure:"addr"`
}

type ReplayConfig struct {
	Path  string  `mapstructure:"path"`
	Speed float64 `mapstructure:"speed"`
}

type Config struct {
	Source        string         `mapstructure:"source"` // "x11", "bridge" or "replay"
	Sink          string         `mapstructure:"sink"`   // "mqtt" or "stdout"
	HTTPAddr      string         `mapstructure:"http_addr"`
	TransitionLog int            `mapstructure:"transition_log"`
	Identity      IdentityConfig `mapstructure:"identity"`
	MQTT          MQTTConfig     `mapstructure:"mqtt"`
	X11           X11Config      `mapstructure:"x11"`
	Bridge        BridgeConfig   `mapstructure:"bridge"`
	Replay        ReplayConfig   `mapstructure:"replay"`
}

// Load reads configuration from configPath, or from the standard search
// paths when configPath is empty. Missing files are fine; invalid values
// are repaired to defaults with a warning.
func Load(configPath string, logger *zap.Logger) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("engagement-sensor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/gurukul")
		v.AddConfigPath("/etc/gurukul/")
	}

	v.SetEnvPrefix("GURUKUL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", "x11")
	v.SetDefault("sink", "stdout")
	v.SetDefault("http_addr", ":8099")
	v.SetDefault("transition_log", 256)
	v.SetDefault("identity.user_id", "")
	v.SetDefault("identity.session_id", "")
	v.SetDefault("identity.lesson_id", "")
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "engagement-sensor")
	v.SetDefault("mqtt.buffer_size", 256)
	v.SetDefault("x11.window_pattern", "(?i)gurukul")
	v.SetDefault("x11.poll_ms", 50)
	v.SetDefault("bridge.addr", "127.0.0.1:8631")
	v.SetDefault("replay.path", "")
	v.SetDefault("replay.speed", 1.0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Info("config file not found, using defaults")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	repair(&cfg, logger)

	logger.Info("configuration loaded",
		zap.String("source", cfg.Source),
		zap.String("sink", cfg.Sink),
		zap.String("http_addr", cfg.HTTPAddr))
	return &cfg, nil
}

func repair(cfg *Config, logger *zap.Logger) {
	switch cfg.Source {
	case "x11", "bridge", "replay":
	default:
		logger.Warn("invalid source, defaulting to x11", zap.String("source", cfg.Source))
		cfg.Source = "x11"
	}

	switch cfg.Sink {
	case "mqtt", "stdout":
	default:
		logger.Warn("invalid sink, defaulting to stdout", zap.String("sink", cfg.Sink))
		cfg.Sink = "stdout"
	}

	if cfg.TransitionLog < 1 {
		logger.Warn("transition_log too low, setting to 256", zap.Int("transition_log", cfg.TransitionLog))
		cfg.TransitionLog = 256
	}
	if cfg.MQTT.BufferSize < 1 {
		logger.Warn("mqtt.buffer_size too low, setting to 256", zap.Int("buffer_size", cfg.MQTT.BufferSize))
		cfg.MQTT.BufferSize = 256
	}
	if cfg.X11.PollMs < 10 {
		logger.Warn("x11.poll_ms too low, setting to 10", zap.Int("poll_ms", cfg.X11.PollMs))
		cfg.X11.PollMs = 10
	}
	if cfg.Replay.Speed <= 0 {
		logger.Warn("replay.speed must be positive, setting to 1.0", zap.Float64("speed", cfg.Replay.Speed))
		cfg.Replay.Speed = 1.0
	}
}

// Poll returns the X11 pointer poll interval.
func (x X11Config) Poll() time.Duration {
	return time.Duration(x.PollMs) * time.Millisecond
}
