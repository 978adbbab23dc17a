package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/vi-cloth/parameter"
	"github.com/lixenwraith/vi-cloth/physics"
)

// Config holds all configuration for the cloth binaries
type Config struct {
	Cloth  physics.Config `yaml:"cloth"`
	Runner RunnerConfig   `yaml:"runner"`
	Server ServerConfig   `yaml:"server"`
	Audio  AudioConfig    `yaml:"audio"`
	Log    LogConfig      `yaml:"log"`
}

// RunnerConfig controls the fixed-cadence step loop
type RunnerConfig struct {
	// Interval is the wall-clock cadence; zero means use cloth.time_step
	Interval time.Duration `yaml:"interval"`
	MaxSteps int           `yaml:"max_steps"` // 0 = unbounded
	// Jitter is the initial noise displacement amplitude applied to free nodes
	Jitter float32 `yaml:"jitter"`
	Seed   int64   `yaml:"seed"`
}

// ServerConfig holds the streaming server settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AudioConfig holds the cap-reached tone settings
type AudioConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Volume     float64 `yaml:"volume"`
	Frequency  float64 `yaml:"frequency"`
	SampleRate int     `yaml:"sample_rate"`
}

// LogConfig holds slog settings
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty = stdout; the terminal viewer always logs to a file
}

// Default returns Config with the stock tuning
func Default() Config {
	return Config{
		Cloth: physics.DefaultConfig(),
		Runner: RunnerConfig{
			Jitter: parameter.JitterAmplitude,
			Seed:   1,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Audio: AudioConfig{
			Enabled:    false,
			Volume:     parameter.CueVolume,
			Frequency:  parameter.CueFrequency,
			SampleRate: parameter.CueSampleRate,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads config from a YAML file, applies CLOTH_* environment overrides and validates
// If the file doesn't exist, defaults are used
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Cloth.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Interval returns the runner cadence, falling back to the simulation time step
func (c Config) Interval() time.Duration {
	if c.Runner.Interval > 0 {
		return c.Runner.Interval
	}
	return c.Cloth.StepDuration()
}

// applyEnv overrides single fields from the environment; unparsable values are ignored
func applyEnv(cfg *Config) {
	envInt("CLOTH_WIDTH", &cfg.Cloth.Width)
	envInt("CLOTH_HEIGHT", &cfg.Cloth.Height)
	envInt("CLOTH_SOLVER_ITERATIONS", &cfg.Cloth.SolverIterations)
	envFloat32("CLOTH_SPACING", &cfg.Cloth.Spacing)
	envFloat32("CLOTH_DAMPING", &cfg.Cloth.Damping)
	envFloat32("CLOTH_TIME_STEP", &cfg.Cloth.TimeStep)
	envFloat32("CLOTH_PULL_FORCE", &cfg.Cloth.PullForce)
	envFloat32("CLOTH_MAX_PULL_DISTANCE", &cfg.Cloth.MaxPullDistance)
	envFloat32("CLOTH_JITTER", &cfg.Runner.Jitter)

	if v := os.Getenv("CLOTH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CLOTH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CLOTH_AUDIO_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Audio.Enabled = b
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat32(key string, dst *float32) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			*dst = float32(f)
		}
	}
}

// ParseLogLevel maps a config level name to slog.Level, defaulting to info
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
