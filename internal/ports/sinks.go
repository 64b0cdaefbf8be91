package ports

import (
	"github.com/osiris-robotics/plexus/internal/domain"
)

// HeartbeatSink persists per-node liveness records to globally addressable
// slots. Writes are best-effort from the caller's point of view: the
// runtime context swallows any error returned here. Reads return ok=false
// on missing or malformed data rather than an error, because a partial
// record is an expected race with a concurrent writer.
type HeartbeatSink interface {
	WriteHeartbeat(rec domain.HeartbeatRecord) error
	ReadHeartbeat(nodeName string) (domain.HeartbeatRecord, bool)
	ListHeartbeats() []domain.HeartbeatRecord

	WriteNetworkStatus(rec domain.NetworkStatusRecord) error
	ReadNetworkStatus(nodeName string) (domain.NetworkStatusRecord, bool)
}

// LogSink receives structured observability entries. Publish must never
// block the tick path and never surfaces I/O failures to it.
type LogSink interface {
	Publish(entry domain.LogEntry)
}

// NopLogSink discards everything; the default when no stream is wired.
type NopLogSink struct{}

func (NopLogSink) Publish(domain.LogEntry) {}
