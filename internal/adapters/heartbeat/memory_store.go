package heartbeat

import (
	"sort"
	"sync"

	"github.com/osiris-robotics/plexus/internal/domain"
	"github.com/osiris-robotics/plexus/internal/ports"
)

// MemoryStore is the in-process double of FileStore for tests and
// embedded monitors.
type MemoryStore struct {
	mu         sync.RWMutex
	heartbeats map[string]domain.HeartbeatRecord
	network    map[string]domain.NetworkStatusRecord
}

var _ ports.HeartbeatSink = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		heartbeats: make(map[string]domain.HeartbeatRecord),
		network:    make(map[string]domain.NetworkStatusRecord),
	}
}

func (s *MemoryStore) WriteHeartbeat(rec domain.HeartbeatRecord) error {
	s.mu.Lock()
	s.heartbeats[rec.NodeName] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ReadHeartbeat(nodeName string) (domain.HeartbeatRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.heartbeats[nodeName]
	return rec, ok
}

func (s *MemoryStore) ListHeartbeats() []domain.HeartbeatRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.HeartbeatRecord, 0, len(s.heartbeats))
	for _, rec := range s.heartbeats {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeName < out[j].NodeName })
	return out
}

func (s *MemoryStore) WriteNetworkStatus(rec domain.NetworkStatusRecord) error {
	s.mu.Lock()
	s.network[rec.NodeName] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ReadNetworkStatus(nodeName string) (domain.NetworkStatusRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.network[nodeName]
	return rec, ok
}
