package runtime

import (
	"time"
)

type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// boundedHistory keeps the most recent entries up to a fixed cap,
// dropping the oldest first.
type boundedHistory struct {
	cap     int
	entries []HistoryEntry
}

func newBoundedHistory(cap int) *boundedHistory {
	return &boundedHistory{cap: cap}
}

func (h *boundedHistory) push(msg string) {
	if len(h.entries) >= h.cap {
		h.entries = h.entries[1:]
	}
	h.entries = append(h.entries, HistoryEntry{Timestamp: time.Now(), Message: msg})
}

func (h *boundedHistory) snapshot() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}
