package domain

import (
	"log/slog"
	"time"
)

type Config struct {
	NodeName string       `json:"node_name" yaml:"node_name"`
	Logger   *slog.Logger `json:"-" yaml:"-"`

	Runtime   RuntimeConfig   `json:"runtime" yaml:"runtime"`
	Heartbeat HeartbeatConfig `json:"heartbeat" yaml:"heartbeat"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	Pool      PoolConfig      `json:"pool" yaml:"pool"`
}

type RuntimeConfig struct {
	TickTimeout    time.Duration `json:"tick_timeout" yaml:"tick_timeout"`
	TargetRateHz   float64       `json:"target_rate_hz" yaml:"target_rate_hz"`
	LoggingEnabled bool          `json:"logging_enabled" yaml:"logging_enabled"`
	LogLevel       string        `json:"log_level" yaml:"log_level"`
	Restart        RestartPolicy `json:"restart" yaml:"restart"`
	HistoryCap     int           `json:"history_cap" yaml:"history_cap"`
}

type RestartPolicy struct {
	MaxRestartAttempts int           `json:"max_restart_attempts" yaml:"max_restart_attempts"`
	RestartDelay       time.Duration `json:"restart_delay" yaml:"restart_delay"`
}

type HeartbeatConfig struct {
	// Dir is the per-host directory of per-node heartbeat slots. Every
	// process on the host resolves the same default so one observer sees
	// all nodes.
	Dir                string        `json:"dir" yaml:"dir"`
	FreshnessThreshold time.Duration `json:"freshness_threshold" yaml:"freshness_threshold"`
}

type TelemetryConfig struct {
	ArchiveDir string        `json:"archive_dir" yaml:"archive_dir"`
	Retention  time.Duration `json:"retention" yaml:"retention"`
	BufferSize int           `json:"buffer_size" yaml:"buffer_size"`
}

type PoolConfig struct {
	SlotCount int    `json:"slot_count" yaml:"slot_count"`
	SlotBytes uint64 `json:"slot_bytes" yaml:"slot_bytes"`
}
