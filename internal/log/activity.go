package log

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// Capacity is the maximum number of entries retained by an Activity.
const Capacity = 50

// Activity is the bounded, newest-first activity buffer. It is safe for
// concurrent use.
type Activity struct {
	mu       sync.Mutex
	entries  []Entry
	journal  *Journal
	watchers []func(Entry)
}

// NewActivity creates an empty buffer. journal may be nil.
func NewActivity(journal *Journal) *Activity {
	return &Activity{
		entries: make([]Entry, 0, Capacity),
		journal: journal,
	}
}

// Append inserts entry at the head, evicts whatever falls beyond Capacity,
// then re-sorts the retained entries newest first.
func (a *Activity) Append(entry Entry) {
	a.mu.Lock()
	a.entries = append([]Entry{entry}, a.entries...)
	if len(a.entries) > Capacity {
		a.entries = a.entries[:Capacity]
	}
	sort.SliceStable(a.entries, func(i, j int) bool {
		return Newer(a.entries[i], a.entries[j])
	})
	watchers := append([]func(Entry){}, a.watchers...)
	a.mu.Unlock()

	if a.journal != nil {
		if err := a.journal.Append(entry); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write activity journal: %v\n", err)
		}
	}
	for _, fn := range watchers {
		fn(entry)
	}
}

// Render returns a copy of the retained entries, newest first.
func (a *Activity) Render() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Len returns the number of retained entries.
func (a *Activity) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Watch registers fn to be called after every Append. fn runs on the
// appending goroutine and must not call back into Append.
func (a *Activity) Watch(fn func(Entry)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watchers = append(a.watchers, fn)
}
