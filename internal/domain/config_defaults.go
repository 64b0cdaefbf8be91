package domain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

func DefaultConfig() *Config {
	return &Config{
		Runtime:   DefaultRuntimeConfig(),
		Heartbeat: DefaultHeartbeatConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Pool:      DefaultPoolConfig(),
	}
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		TickTimeout:    100 * time.Millisecond,
		TargetRateHz:   30,
		LoggingEnabled: true,
		LogLevel:       "info",
		HistoryCap:     100,
		Restart: RestartPolicy{
			MaxRestartAttempts: 3,
			RestartDelay:       500 * time.Millisecond,
		},
	}
}

func DefaultHeartbeatConfig() HeartbeatConfig {
	return HeartbeatConfig{
		Dir:                defaultHeartbeatDir(),
		FreshnessThreshold: 5 * time.Second,
	}
}

func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Retention:  24 * time.Hour,
		BufferSize: 256,
	}
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		SlotCount: 64,
		SlotBytes: 16 << 20,
	}
}

func defaultHeartbeatDir() string {
	if dir := os.Getenv("PLEXUS_HEARTBEAT_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "plexus", "heartbeats")
}

// LoadConfig reads a YAML config file over a pre-populated default config,
// so a partial file only has to name what it changes and an explicit zero
// or false in the file is honored as written.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError("file", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, NewConfigError("yaml", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeConfig fills any zero-valued field of overlay from the defaults and
// validates the result. Zero means unset here: a config built in code that
// needs an explicit false or zero to survive must set it after merging.
func MergeConfig(overlay *Config) (*Config, error) {
	merged := *overlay
	if err := mergo.Merge(&merged, *DefaultConfig()); err != nil {
		return nil, NewConfigError("merge", err)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate fails fast on internally inconsistent configuration. This is
// the only construction-time failure mode the runtime context has.
func (c *Config) Validate() error {
	if err := c.Runtime.Validate(); err != nil {
		return err
	}
	if c.Heartbeat.FreshnessThreshold < 0 {
		return NewConfigError("heartbeat.freshness_threshold", ErrInvalidConfig)
	}
	if c.Telemetry.BufferSize < 0 {
		return NewConfigError("telemetry.buffer_size", ErrInvalidConfig)
	}
	if err := c.Pool.Validate(); err != nil {
		return err
	}
	return nil
}

func (r RuntimeConfig) Validate() error {
	if r.TickTimeout < 0 {
		return NewConfigError("runtime.tick_timeout", ErrInvalidConfig)
	}
	if r.TargetRateHz < 0 {
		return NewConfigError("runtime.target_rate_hz", ErrInvalidConfig)
	}
	if r.HistoryCap <= 0 {
		return NewConfigError("runtime.history_cap", ErrInvalidConfig)
	}
	if r.Restart.MaxRestartAttempts < 0 {
		return NewConfigError("runtime.restart.max_restart_attempts", ErrInvalidConfig)
	}
	if r.Restart.RestartDelay < 0 {
		return NewConfigError("runtime.restart.restart_delay", ErrInvalidConfig)
	}
	switch r.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return NewConfigError("runtime.log_level",
			fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, r.LogLevel))
	}
	return nil
}

func (p PoolConfig) Validate() error {
	if p.SlotCount <= 0 {
		return NewConfigError("pool.slot_count", ErrInvalidConfig)
	}
	if p.SlotBytes == 0 {
		return NewConfigError("pool.slot_bytes", ErrInvalidConfig)
	}
	return nil
}

var errNoConfig = errors.New("nil config")

func ValidateConfig(c *Config) error {
	if c == nil {
		return NewConfigError("config", errNoConfig)
	}
	return c.Validate()
}
