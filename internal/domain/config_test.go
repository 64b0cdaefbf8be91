package domain

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Runtime.HistoryCap)
	assert.Equal(t, 3, cfg.Runtime.Restart.MaxRestartAttempts)
	assert.Equal(t, 5*time.Second, cfg.Heartbeat.FreshnessThreshold)
}

func TestValidateRejectsInconsistentConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative tick timeout", func(c *Config) { c.Runtime.TickTimeout = -time.Second }},
		{"negative target rate", func(c *Config) { c.Runtime.TargetRateHz = -1 }},
		{"zero history cap", func(c *Config) { c.Runtime.HistoryCap = 0 }},
		{"negative restart attempts", func(c *Config) { c.Runtime.Restart.MaxRestartAttempts = -1 }},
		{"negative restart delay", func(c *Config) { c.Runtime.Restart.RestartDelay = -time.Second }},
		{"unknown log level", func(c *Config) { c.Runtime.LogLevel = "loud" }},
		{"zero slot count", func(c *Config) { c.Pool.SlotCount = 0 }},
		{"zero slot bytes", func(c *Config) { c.Pool.SlotBytes = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestValidateConfigNil(t *testing.T) {
	err := ValidateConfig(nil)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestMergeConfigFillsDefaults(t *testing.T) {
	overlay := &Config{NodeName: "camera"}
	overlay.Runtime.HistoryCap = 10

	merged, err := MergeConfig(overlay)
	require.NoError(t, err)

	assert.Equal(t, "camera", merged.NodeName)
	assert.Equal(t, 10, merged.Runtime.HistoryCap, "explicit overlay value wins")
	assert.Equal(t, 3, merged.Runtime.Restart.MaxRestartAttempts, "zero fields come from defaults")
	assert.NotEmpty(t, merged.Heartbeat.Dir)
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plexus.yaml")
	content := "node_name: imu\n" +
		"runtime:\n" +
		"  target_rate_hz: 200\n" +
		"  tick_timeout: 250ms\n" +
		"  restart:\n" +
		"    max_restart_attempts: 7\n" +
		"    restart_delay: 2s\n" +
		"heartbeat:\n" +
		"  freshness_threshold: 10s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "imu", cfg.NodeName)
	assert.Equal(t, 200.0, cfg.Runtime.TargetRateHz)
	assert.Equal(t, 250*time.Millisecond, cfg.Runtime.TickTimeout)
	assert.Equal(t, 7, cfg.Runtime.Restart.MaxRestartAttempts)
	assert.Equal(t, 2*time.Second, cfg.Runtime.Restart.RestartDelay)
	assert.Equal(t, 10*time.Second, cfg.Heartbeat.FreshnessThreshold)
	assert.Equal(t, 100, cfg.Runtime.HistoryCap, "unset fields default")
}

func TestLoadConfigHonorsExplicitZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plexus.yaml")
	content := "runtime:\n" +
		"  logging_enabled: false\n" +
		"  target_rate_hz: 0\n" +
		"  tick_timeout: 0s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Runtime.LoggingEnabled,
		"an operator's explicit false must not be flipped back to the default")
	assert.Equal(t, 0.0, cfg.Runtime.TargetRateHz)
	assert.Equal(t, time.Duration(0), cfg.Runtime.TickTimeout)
	assert.Equal(t, 3, cfg.Runtime.Restart.MaxRestartAttempts, "unset fields still default")
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, IsConfigError(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runtime: [not a map"), 0o644))
	_, err = LoadConfig(path)
	assert.True(t, IsConfigError(err))
}
