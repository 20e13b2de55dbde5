// Package recent keeps the last accepted entries in memory for display.
// The list lives for one process and is cleared on restart; the remote
// drive holds the durable copies.
package recent

import (
	"sync"

	"github.com/qwertyasvishwa/Memory-Router/internal/domain"
)

// List is a capacity-bounded, most-recent-first view of accepted entries.
// It is constructed once at startup and passed to whoever needs it; safe
// for concurrent append and read.
type List struct {
	mu      sync.RWMutex
	entries []domain.Entry
	cap     int
}

// NewList creates a List that retains at most capacity entries.
// A capacity of zero or less means unbounded.
func NewList(capacity int) *List {
	return &List{cap: capacity}
}

// Append records one accepted entry. It never fails.
func (l *List) Append(entry domain.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if l.cap > 0 && len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
}

// Recent returns up to limit entries, most recently appended first.
// A limit of zero or less returns everything retained.
func (l *List) Recent(limit int) []domain.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Entry, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Len reports how many entries are currently retained.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
