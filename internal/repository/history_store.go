package repository

import (
	"sync"

	"PlumbWatch/internal/domain/models"
	domrepo "PlumbWatch/internal/domain/repository"
)

// DefaultHistoryEntries bounds the in-memory daily window.
const DefaultHistoryEntries = 90

// HistoryStore is the bounded rolling window of daily entries. One entry is
// kept per calendar day; a repeated append on the same day replaces it.
type HistoryStore struct {
	mu      sync.RWMutex
	entries []models.HistoryEntry
	max     int
}

var _ domrepo.History = (*HistoryStore)(nil)

func NewHistoryStore(max int) *HistoryStore {
	if max <= 0 {
		max = DefaultHistoryEntries
	}
	return &HistoryStore{
		entries: make([]models.HistoryEntry, 0, max),
		max:     max,
	}
}

// Append adds entry, replacing the last one when it has the same date.
// Entries older than the last one are ignored.
func (h *HistoryStore) Append(entry models.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 {
		last := h.entries[n-1].Date
		switch {
		case entry.Date == last:
			h.entries[n-1] = entry
			return
		case entry.Date < last:
			return
		}
	}

	h.entries = append(h.entries, entry)
	if over := len(h.entries) - h.max; over > 0 {
		// copy down so the backing array does not grow without bound
		n := copy(h.entries, h.entries[over:])
		h.entries = h.entries[:n]
	}
}

// Window returns a copy of the entries, oldest first.
func (h *HistoryStore) Window() []models.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Series returns the non-null values of name in chronological order.
func (h *HistoryStore) Series(name models.Series) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]float64, 0, len(h.entries))
	for _, e := range h.entries {
		if v := e.Snapshot.Value(name); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func (h *HistoryStore) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Max returns the capacity.
func (h *HistoryStore) Max() int { return h.max }
