package runtime

import (
	"time"

	"github.com/osiris-robotics/plexus/internal/domain"
)

// StartTick records the tick-start instant. A context still uninitialized
// at its first tick is initialized lazily.
func (c *Context) StartTick() {
	if c.State() == domain.NodeStateUninitialized {
		c.Initialize()
	}
	c.mu.Lock()
	c.tickStart = time.Now()
	c.mu.Unlock()
}

// RecordTick books a successful tick and always emits a heartbeat,
// independent of whether logging is enabled. Only total_ticks is gated on
// the logging flag, which lets a warm-up phase stay invisible to
// operators while durations keep accumulating.
func (c *Context) RecordTick() {
	c.mu.Lock()
	d := time.Since(c.tickStart)
	if c.config.LoggingEnabled {
		c.metrics.TotalTicks++
	}
	c.metrics.SuccessfulTicks++
	c.recordDurationLocked(d)
	c.lastTickTime = time.Now()
	c.lastGood = c.snapshotLocked()
	c.mu.Unlock()

	c.emitHeartbeat()
}

// RecordTickFailure books a failed tick with the same duration
// bookkeeping, appends the reason to the bounded error history, and still
// emits a heartbeat so external monitors see error counts rising while
// ticks fail.
func (c *Context) RecordTickFailure(reason string) {
	c.mu.Lock()
	d := time.Since(c.tickStart)
	if c.config.LoggingEnabled {
		c.metrics.TotalTicks++
	}
	c.metrics.FailedTicks++
	c.metrics.ErrorsCount++
	c.errorHistory.push(reason)
	c.recordDurationLocked(d)
	c.lastTickTime = time.Now()
	c.lastGood = c.snapshotLocked()
	c.mu.Unlock()

	c.emitHeartbeat()
}

func (c *Context) recordDurationLocked(d time.Duration) {
	ms := domain.DurationMs(d)
	c.tickSamples++
	n := float64(c.tickSamples)

	if c.tickSamples == 1 || ms < c.metrics.MinTickDurationMs {
		c.metrics.MinTickDurationMs = ms
	}
	if ms > c.metrics.MaxTickDurationMs {
		c.metrics.MaxTickDurationMs = ms
	}
	c.metrics.LastTickDurationMs = ms
	c.metrics.AvgTickDurationMs = (c.metrics.AvgTickDurationMs*(n-1) + ms) / n
}

func (c *Context) snapshotLocked() domain.NodeMetrics {
	snap := c.metrics
	snap.UptimeSeconds = time.Since(c.creationTime).Seconds()
	return snap
}

// Metrics returns a consistent snapshot. A panic raised while producing
// the snapshot (a monitoring fault) is contained here and answered with
// the last known good snapshot; it must never reach the node.
func (c *Context) Metrics() (snap domain.NodeMetrics) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("metrics snapshot recovered from panic", "panic", r)
			snap = c.lastGood
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Context) Health() domain.HealthStatus {
	return domain.HealthFromMetrics(c.State(), c.Metrics())
}

func (c *Context) LastTickTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTickTime
}

// emitHeartbeat persists the liveness record. Best effort: losing an
// observability write must never affect node execution, so failures are
// swallowed after a debug log.
func (c *Context) emitHeartbeat() {
	if c.heartbeats == nil {
		return
	}

	c.mu.Lock()
	snap := c.snapshotLocked()
	state := c.state
	lastTick := c.lastTickTime
	c.mu.Unlock()

	actual := 0.0
	if snap.UptimeSeconds > 0 {
		actual = float64(snap.SuccessfulTicks) / snap.UptimeSeconds
	}

	rec := domain.HeartbeatRecord{
		NodeName:           c.name,
		State:              state,
		Health:             domain.HealthFromMetrics(state, snap),
		TickCount:          snap.SuccessfulTicks,
		TargetRateHz:       c.config.TargetRateHz,
		ActualRateHz:       actual,
		ErrorCount:         snap.ErrorsCount,
		LastTickTimestamp:  lastTick,
		HeartbeatTimestamp: time.Now(),
	}

	if err := c.heartbeats.WriteHeartbeat(rec); err != nil {
		c.logger.Debug("heartbeat write failed", "error", err)
	}
}

// WriteNetworkStatus stamps and persists a transport telemetry record
// through the same sink, with the same swallow-on-failure contract.
func (c *Context) WriteNetworkStatus(rec domain.NetworkStatusRecord) {
	if c.heartbeats == nil {
		return
	}
	rec.NodeName = c.name
	rec.Timestamp = time.Now()
	if err := c.heartbeats.WriteNetworkStatus(rec); err != nil {
		c.logger.Debug("network status write failed", "error", err)
	}
}
