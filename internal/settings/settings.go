// Package settings holds every user-tunable parameter as a named, bounded,
// labeled value and provides flat key/value snapshots for transport across the
// broadcast channel.
package settings

import (
	"sync"
)

// Entry describes one tunable value. The key is immutable; the value is
// mutated by user interaction or by an incoming snapshot. Bounds are advisory
// and enforced by UI widgets, not re-validated on programmatic set.
type Entry struct {
	Key       string
	Value     any
	Min       float64
	Max       float64
	HasBounds bool
	Label     string
	Options   []string
}

// Store is the session-wide settings table. Writes come from a single writer
// (the UI/loop thread or an incoming snapshot); reads happen every tick, so
// multi-field reads go through Snapshot to avoid tearing.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

// NewStore builds the full table from the compiled-in default entries.
func NewStore() *Store {
	return newStoreFromEntries(defaultEntries())
}

func newStoreFromEntries(defaults []Entry) *Store {
	s := &Store{
		entries: make(map[string]*Entry, len(defaults)),
		order:   make([]string, 0, len(defaults)),
	}
	for _, e := range defaults {
		entry := e
		s.entries[entry.Key] = &entry
		s.order = append(s.order, entry.Key)
	}
	return s
}

// Float returns the numeric value stored under key, or 0 when the key is
// absent or holds a non-numeric value.
func (s *Store) Float(key string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return 0
	}
	v, _ := asFloat(entry.Value)
	return v
}

// Bool returns the boolean value stored under key, or false when absent.
func (s *Store) Bool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return false
	}
	v, _ := entry.Value.(bool)
	return v
}

// String returns the string value stored under key, or "" when absent.
func (s *Store) String(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return ""
	}
	v, _ := entry.Value.(string)
	return v
}

// Set overwrites the value stored under key. Unknown keys are ignored so the
// key set stays fixed for the lifetime of the session.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(key, value)
}

// Adjust adds delta to the numeric value under key, clamping to the entry's
// bounds when it has them. Non-numeric and unknown keys are left untouched.
func (s *Store) Adjust(key string, delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return
	}
	current, ok := asFloat(entry.Value)
	if !ok {
		return
	}
	next := current + delta
	if entry.HasBounds {
		if next < entry.Min {
			next = entry.Min
		}
		if next > entry.Max {
			next = entry.Max
		}
	}
	entry.Value = next
}

// Snapshot extracts the current {key: value} table for transport.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]any, len(s.entries))
	for key, entry := range s.entries {
		snapshot[key] = entry.Value
	}
	return snapshot
}

// Apply merges a snapshot into the table. Only keys present in both are
// applied; unknown keys and values of a mismatched kind are silently ignored,
// which keeps partial snapshots from older or newer peers harmless.
func (s *Store) Apply(snapshot map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range snapshot {
		s.apply(key, value)
	}
}

func (s *Store) apply(key string, value any) {
	entry, ok := s.entries[key]
	if !ok {
		return
	}

	switch entry.Value.(type) {
	case float64:
		if v, ok := asFloat(value); ok {
			entry.Value = v
		}
	case bool:
		if v, ok := value.(bool); ok {
			entry.Value = v
		}
	case string:
		if v, ok := value.(string); ok {
			entry.Value = v
		}
	}
}

// Entries returns copies of every entry in declaration order, for UI display.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, *s.entries[key])
	}
	return out
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
