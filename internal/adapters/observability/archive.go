package observability

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/osiris-robotics/plexus/internal/domain"
	"github.com/osiris-robotics/plexus/internal/xjson"
)

// Archive is the durable store behind the telemetry stream. Entries are
// keyed telemetry:<node>:<seq> so a dashboard can replay one node's
// stream in publish order; the retention TTL bounds growth.
type Archive struct {
	db        *badger.DB
	logger    *slog.Logger
	retention time.Duration
	seq       uint64
}

func NewArchive(db *badger.DB, retention time.Duration, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = domain.DefaultTelemetryConfig().Retention
	}
	return &Archive{
		db:        db,
		logger:    logger.With("component", "telemetry-archive"),
		retention: retention,
	}
}

// OpenArchive opens a badger database at dir for archive use.
func OpenArchive(dir string, retention time.Duration, logger *slog.Logger) (*Archive, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return NewArchive(db, retention, logger), nil
}

func (a *Archive) Append(entry domain.LogEntry) error {
	data, err := xjson.Marshal(entry)
	if err != nil {
		return err
	}

	seq := atomic.AddUint64(&a.seq, 1)
	key := fmt.Sprintf("telemetry:%s:%020d", entry.NodeName, seq)

	return a.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data).WithTTL(a.retention)
		return txn.SetEntry(e)
	})
}

// Replay returns up to limit entries for one node in append order.
// limit <= 0 means no limit.
func (a *Archive) Replay(nodeName string, limit int) ([]domain.LogEntry, error) {
	prefix := []byte(fmt.Sprintf("telemetry:%s:", nodeName))

	var out []domain.LogEntry
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var entry domain.LogEntry
			if err := xjson.Unmarshal(val, &entry); err != nil {
				a.logger.Debug("skipping malformed archive entry", "error", err)
				continue
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}

func (a *Archive) Close() error {
	return a.db.Close()
}
