package domain

import (
	"time"
)

// NodeMetrics is a point-in-time snapshot of one node's tick accounting.
// The runtime context owns the live copy behind its metrics lock; readers
// only ever see a full snapshot. Counters are monotonically non-decreasing
// within a context's lifetime.
type NodeMetrics struct {
	TotalTicks      uint64 `json:"total_ticks"`
	SuccessfulTicks uint64 `json:"successful_ticks"`
	FailedTicks     uint64 `json:"failed_ticks"`

	MinTickDurationMs  float64 `json:"min_tick_duration_ms"`
	MaxTickDurationMs  float64 `json:"max_tick_duration_ms"`
	AvgTickDurationMs  float64 `json:"avg_tick_duration_ms"`
	LastTickDurationMs float64 `json:"last_tick_duration_ms"`

	MessagesSent     uint64 `json:"messages_sent"`
	MessagesReceived uint64 `json:"messages_received"`

	ErrorsCount   uint64 `json:"errors_count"`
	WarningsCount uint64 `json:"warnings_count"`

	UptimeSeconds float64 `json:"uptime_seconds"`
}

type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthError    HealthStatus = "error"
	HealthCritical HealthStatus = "critical"
	HealthUnknown  HealthStatus = "unknown"
)

// ParseHealthStatus degrades unrecognized strings to HealthUnknown instead
// of erroring, mirroring ParseNodeState.
func ParseHealthStatus(s string) HealthStatus {
	switch HealthStatus(s) {
	case HealthHealthy, HealthWarning, HealthError, HealthCritical, HealthUnknown:
		return HealthStatus(s)
	default:
		return HealthUnknown
	}
}

// Health derivation thresholds. Ordered: critical wins over error wins
// over warning.
const (
	HealthCriticalErrorCount = 10
	HealthErrorErrorCount    = 3
	HealthWarnAvgTickMs      = 100.0
)

// HealthFromMetrics derives a node's health purely from its metrics
// snapshot. The state argument is carried for symmetry with the heartbeat
// record; a crashed node still reports through its error counters.
func HealthFromMetrics(state NodeState, m NodeMetrics) HealthStatus {
	switch {
	case m.ErrorsCount > HealthCriticalErrorCount:
		return HealthCritical
	case m.ErrorsCount > HealthErrorErrorCount:
		return HealthError
	case m.FailedTicks > 0 || m.AvgTickDurationMs > HealthWarnAvgTickMs:
		return HealthWarning
	default:
		return HealthHealthy
	}
}

func DurationMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
