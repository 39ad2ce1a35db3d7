// Package store holds the table of clip entries the hotkeys act on.
package store

import "sync/atomic"

// DefaultCapacity is the number of slots when none is configured.
const DefaultCapacity = 3

// Entry is one reusable snippet. The zero value is the empty slot:
// no text, clipboard disabled.
type Entry struct {
	Text            string
	PushToClipboard bool
}

// Store is a fixed-capacity table of entries. Readers always see a
// complete table: ReplaceAll swaps the whole slice in one atomic store.
type Store struct {
	capacity int
	table    atomic.Pointer[[]Entry]
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{capacity: capacity}
	empty := make([]Entry, capacity)
	s.table.Store(&empty)
	return s
}

func (s *Store) Capacity() int { return s.capacity }

// Get returns the entry in slot i. Slots outside the table read as the
// empty entry; bindings are only ever generated for valid slots.
func (s *Store) Get(i int) Entry {
	t := *s.table.Load()
	if i < 0 || i >= len(t) {
		return Entry{}
	}
	return t[i]
}

// ReplaceAll installs a new table, truncated or padded to capacity.
func (s *Store) ReplaceAll(entries []Entry) {
	t := Normalize(entries, s.capacity)
	s.table.Store(&t)
}

// Snapshot returns a copy of the current table.
func (s *Store) Snapshot() []Entry {
	t := *s.table.Load()
	out := make([]Entry, len(t))
	copy(out, t)
	return out
}

// Normalize returns a fresh slice of exactly n entries: extra entries are
// dropped and missing ones are empty.
func Normalize(entries []Entry, n int) []Entry {
	out := make([]Entry, n)
	copy(out, entries)
	return out
}
