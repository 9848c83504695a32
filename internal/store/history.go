package store

import (
	"fmt"
	"sync"
	"time"
)

const (
	historyKey = "history"

	// Visit history cap bounds. Configured caps outside this range are
	// clamped rather than rejected.
	MinHistorySize     = 10
	MaxHistorySize     = 20
	DefaultHistorySize = 15
)

// Visit is one recorded page visit.
type Visit struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// History keeps the most recent page visits, newest first, capped and
// de-duplicated on URL. Every mutation is persisted through the FileStore.
type History struct {
	mu    sync.Mutex
	store *FileStore
	max   int

	visits []Visit
}

// NewHistory loads any persisted visits from fs. max is clamped into
// [MinHistorySize, MaxHistorySize]; pass 0 for the default.
func NewHistory(fs *FileStore, max int) (*History, error) {
	if max == 0 {
		max = DefaultHistorySize
	}
	if max < MinHistorySize {
		max = MinHistorySize
	}
	if max > MaxHistorySize {
		max = MaxHistorySize
	}

	h := &History{store: fs, max: max}

	var persisted []Visit
	err := fs.Load(historyKey, &persisted)
	switch {
	case err == nil:
		if len(persisted) > max {
			persisted = persisted[:max]
		}
		h.visits = persisted
	case err == ErrNotFound:
		// first run
	default:
		return nil, fmt.Errorf("load visit history: %w", err)
	}

	return h, nil
}

// Record adds a visit at the front of the list. A URL already present is
// moved to the front with the new timestamp instead of duplicated; the
// oldest entry falls off once the cap is reached.
func (h *History) Record(url string, ts time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := make([]Visit, 0, len(h.visits)+1)
	kept = append(kept, Visit{URL: url, Timestamp: ts})
	for _, v := range h.visits {
		if v.URL == url {
			continue
		}
		kept = append(kept, v)
	}
	if len(kept) > h.max {
		kept = kept[:h.max]
	}
	h.visits = kept

	return h.store.Save(historyKey, h.visits)
}

// Recent returns the visits, most recent first. The returned slice is a
// copy; callers may not mutate history through it.
func (h *History) Recent() []Visit {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Visit, len(h.visits))
	copy(out, h.visits)
	return out
}

// Len returns the number of recorded visits.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.visits)
}
