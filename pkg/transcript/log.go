package transcript

import (
	"fmt"
	"sync"
)

// ErrBrokenChain is returned by Verify when an entry no longer matches its hash
// or does not link to its predecessor.
type ErrBrokenChain struct {
	Index int
	Hash  string
}

func (e ErrBrokenChain) Error() string {
	return fmt.Sprintf("transcript chain broken at entry %d (%s)", e.Index, e.Hash)
}

// Log is an append-only, in-memory transcript. Entries are never removed,
// reordered, or deduplicated. Safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewLog creates an empty transcript.
func NewLog() *Log {
	return &Log{}
}

// Append records a turn after the current head and returns the new entry.
func (l *Log) Append(question, answer string) *Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var parent *Entry
	if n := len(l.entries); n > 0 {
		parent = l.entries[n-1]
	}

	e := NewEntry(question, answer, parent)
	l.entries = append(l.entries, e)
	return e
}

// Entries returns the transcript in chronological order (oldest first).
// The returned slice and entries are copies.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = *e
	}
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Head returns a copy of the most recent entry, or nil for an empty transcript.
func (l *Log) Head() *Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil
	}
	e := *l.entries[len(l.entries)-1]
	return &e
}

// Verify recomputes every hash and parent link from the first entry to the head.
func (l *Log) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var prev *Entry
	for i, e := range l.entries {
		switch {
		case prev == nil && e.ParentHash != nil:
			return ErrBrokenChain{Index: i, Hash: e.Hash}
		case prev != nil && (e.ParentHash == nil || *e.ParentHash != prev.Hash):
			return ErrBrokenChain{Index: i, Hash: e.Hash}
		case e.computeHash() != e.Hash:
			return ErrBrokenChain{Index: i, Hash: e.Hash}
		}
		prev = e
	}

	return nil
}
