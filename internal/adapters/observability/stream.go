package observability

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/osiris-robotics/plexus/internal/domain"
	"github.com/osiris-robotics/plexus/internal/ports"
)

// Stream fans structured log entries out to subscribers and, when an
// archive is attached, persists them for dashboard replay. Publish never
// blocks the tick path: a subscriber that cannot keep up loses entries.
type Stream struct {
	logger  *slog.Logger
	archive *Archive

	mu   sync.RWMutex
	subs map[string]chan domain.LogEntry
}

var _ ports.LogSink = (*Stream)(nil)

func NewStream(archive *Archive, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{
		logger:  logger.With("component", "telemetry-stream"),
		archive: archive,
		subs:    make(map[string]chan domain.LogEntry),
	}
}

func (s *Stream) Publish(entry domain.LogEntry) {
	if s.archive != nil {
		if err := s.archive.Append(entry); err != nil {
			s.logger.Debug("telemetry archive append failed", "error", err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}

// Subscribe returns a buffered channel of entries and a cancel func.
func (s *Stream) Subscribe(buffer int) (<-chan domain.LogEntry, func()) {
	if buffer <= 0 {
		buffer = domain.DefaultTelemetryConfig().BufferSize
	}
	id := uuid.NewString()
	ch := make(chan domain.LogEntry, buffer)

	s.mu.Lock()
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Stream) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
