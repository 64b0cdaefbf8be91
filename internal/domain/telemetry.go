package domain

import (
	"time"
)

type LogKind string

const (
	LogKindPublish   LogKind = "publish"
	LogKindSubscribe LogKind = "subscribe"
	LogKindInfo      LogKind = "info"
	LogKindWarning   LogKind = "warning"
	LogKindError     LogKind = "error"
	LogKindDebug     LogKind = "debug"
)

// LogEntry is one structured observability record published to the shared
// telemetry stream for external dashboards. It rides alongside the node's
// own data path and never feeds back into it.
type LogEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	TickNumber uint64    `json:"tick_number"`
	NodeName   string    `json:"node_name"`
	Kind       LogKind   `json:"kind"`
	Topic      string    `json:"topic,omitempty"`
	Message    string    `json:"message"`
	TickMicros int64     `json:"tick_microseconds"`
	IPCNanos   int64     `json:"ipc_nanoseconds"`
}
