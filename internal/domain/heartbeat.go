package domain

import (
	"time"
)

// HeartbeatRecord is the globally visible liveness snapshot for one node.
// It is rewritten after every tick (success or failure) and once more at
// shutdown; any process on the host may read it.
type HeartbeatRecord struct {
	NodeName           string       `json:"node_name"`
	State              NodeState    `json:"state"`
	Health             HealthStatus `json:"health"`
	TickCount          uint64       `json:"tick_count"`
	TargetRateHz       float64      `json:"target_rate_hz"`
	ActualRateHz       float64      `json:"actual_rate_hz"`
	ErrorCount         uint64       `json:"error_count"`
	LastTickTimestamp  time.Time    `json:"last_tick_timestamp"`
	HeartbeatTimestamp time.Time    `json:"heartbeat_timestamp"`
}

// IsFresh reports whether the record was written within maxAge of now.
// A stale heartbeat is the only externally visible sign of a hung tick:
// the persisted state may still say "running".
func (h HeartbeatRecord) IsFresh(maxAge time.Duration) bool {
	return time.Since(h.HeartbeatTimestamp) <= maxAge
}

// Normalize degrades unknown enum strings in a record parsed from foreign
// data to their safe defaults.
func (h *HeartbeatRecord) Normalize() {
	h.State = ParseNodeState(string(h.State))
	h.Health = ParseHealthStatus(string(h.Health))
}

// NetworkStatusRecord carries transport-layer telemetry for one node and
// follows the same write/read/freshness pattern as HeartbeatRecord.
type NetworkStatusRecord struct {
	NodeName         string    `json:"node_name"`
	TransportType    string    `json:"transport_type"`
	LocalEndpoint    string    `json:"local_endpoint,omitempty"`
	RemoteEndpoints  []string  `json:"remote_endpoints,omitempty"`
	PublishedTopics  []string  `json:"published_topics,omitempty"`
	SubscribedTopics []string  `json:"subscribed_topics,omitempty"`
	BytesSent        uint64    `json:"bytes_sent"`
	BytesReceived    uint64    `json:"bytes_received"`
	PacketsSent      uint64    `json:"packets_sent"`
	PacketsReceived  uint64    `json:"packets_received"`
	Timestamp        time.Time `json:"timestamp"`
}

func (n NetworkStatusRecord) IsFresh(maxAge time.Duration) bool {
	return time.Since(n.Timestamp) <= maxAge
}
