package heartbeat

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/osiris-robotics/plexus/internal/domain"
	"github.com/osiris-robotics/plexus/internal/ports"
	"github.com/osiris-robotics/plexus/internal/xjson"
)

const (
	heartbeatSuffix = ".json"
	networkSuffix   = ".net.json"
)

// FileStore keeps one globally addressable record per node name as a JSON
// file under a per-host directory. Writes go through a temp file and
// rename so a concurrent reader never observes a torn record; any process
// on the host can read every node's slot.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

var _ ports.HeartbeatSink = (*FileStore)(nil)

func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{
		dir:    dir,
		logger: logger.With("component", "heartbeat-store"),
	}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) WriteHeartbeat(rec domain.HeartbeatRecord) error {
	return s.writeRecord(rec.NodeName+heartbeatSuffix, rec)
}

// ReadHeartbeat returns (zero, false) on any missing, partial, or
// malformed data. Unrecognized state/health strings degrade to their safe
// defaults rather than failing the read.
func (s *FileStore) ReadHeartbeat(nodeName string) (domain.HeartbeatRecord, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, nodeName+heartbeatSuffix))
	if err != nil {
		return domain.HeartbeatRecord{}, false
	}

	var rec domain.HeartbeatRecord
	if err := xjson.Unmarshal(data, &rec); err != nil {
		s.logger.Debug("malformed heartbeat record", "node", nodeName, "error", err)
		return domain.HeartbeatRecord{}, false
	}
	rec.Normalize()
	return rec, true
}

// ListHeartbeats enumerates every node slot on the host, skipping
// unreadable records. Results are ordered by node name.
func (s *FileStore) ListHeartbeats() []domain.HeartbeatRecord {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	var out []domain.HeartbeatRecord
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, networkSuffix) || !strings.HasSuffix(name, heartbeatSuffix) {
			continue
		}
		node := strings.TrimSuffix(name, heartbeatSuffix)
		if rec, ok := s.ReadHeartbeat(node); ok {
			out = append(out, rec)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].NodeName < out[j].NodeName })
	return out
}

func (s *FileStore) WriteNetworkStatus(rec domain.NetworkStatusRecord) error {
	return s.writeRecord(rec.NodeName+networkSuffix, rec)
}

func (s *FileStore) ReadNetworkStatus(nodeName string) (domain.NetworkStatusRecord, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, nodeName+networkSuffix))
	if err != nil {
		return domain.NetworkStatusRecord{}, false
	}

	var rec domain.NetworkStatusRecord
	if err := xjson.Unmarshal(data, &rec); err != nil {
		s.logger.Debug("malformed network status record", "node", nodeName, "error", err)
		return domain.NetworkStatusRecord{}, false
	}
	return rec, true
}

func (s *FileStore) writeRecord(filename string, rec interface{}) error {
	data, err := xjson.Marshal(rec)
	if err != nil {
		return err
	}

	final := filepath.Join(s.dir, filename)
	tmp, err := os.CreateTemp(s.dir, filename+".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), final)
}
