package cache

import (
	"sync"
	"time"
)

// Entry is the current value of one dataset plus the time it was observed.
// Values are treated as immutable once stored: dataset builders assemble a
// fresh value per fetch and never mutate a value after handing it over.
type Entry struct {
	Value     any
	UpdatedAt time.Time
}

// Snapshot is a consistent, point-in-time view of every populated dataset.
type Snapshot struct {
	Data        map[string]Entry
	LastUpdated time.Time
}

// Value returns the stored value for key, or nil if the key has never been
// populated. Consumers render a "no data yet" state for missing keys.
func (s Snapshot) Value(key string) any {
	if e, ok := s.Data[key]; ok {
		return e.Value
	}
	return nil
}

// Age returns how long ago the snapshot as a whole was refreshed.
func (s Snapshot) Age(now time.Time) time.Duration {
	if s.LastUpdated.IsZero() {
		return 0
	}
	return now.Sub(s.LastUpdated)
}

// Store holds the latest successfully fetched value per dataset key.
// The refresh loop is the sole writer; any number of readers may call
// Snapshot concurrently. The lock is held only for the copy or swap,
// never across network fetches.
type Store struct {
	mu          sync.RWMutex
	entries     map[string]Entry
	lastUpdated time.Time
}

// NewStore creates an empty Store. Keys appear as their first successful
// fetch lands; a key never transitions back to empty.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]Entry),
	}
}

// Replace stores value under key if observedAt is not older than the
// currently stored observation for that key. It reports whether the value
// was applied; a stale or duplicate delivery is a no-op.
func (s *Store) Replace(key string, value any, observedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.entries[key]; ok && observedAt.Before(current.UpdatedAt) {
		return false
	}
	s.entries[key] = Entry{Value: value, UpdatedAt: observedAt}
	return true
}

// MarkCycle advances the overall last-updated timestamp after a full
// refresh cycle. The timestamp only moves forward.
func (s *Store) MarkCycle(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.After(s.lastUpdated) {
		s.lastUpdated = t
	}
}

// Snapshot returns a copy of the current state, consistent at a single
// instant. Readers never observe a dataset mid-update.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make(map[string]Entry, len(s.entries))
	for k, e := range s.entries {
		data[k] = e
	}
	return Snapshot{Data: data, LastUpdated: s.lastUpdated}
}

// UpdatedAt returns the observation time for key and whether the key has
// ever been populated.
func (s *Store) UpdatedAt(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	return e.UpdatedAt, ok
}

// Len returns the number of populated datasets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
