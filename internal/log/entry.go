// Package log holds the user-facing activity log: immutable entries, the
// bounded newest-first buffer the screens render, and a JSONL journal.
package log

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an entry for rendering.
type Kind string

// Entry kinds.
const (
	KindInfo       Kind = "info"
	KindSuccess    Kind = "success"
	KindError      Kind = "error"
	KindVoice      Kind = "voice"
	KindTranscript Kind = "transcript"
	KindTask       Kind = "task"
)

// Entry is one line of activity. Entries are values and are never mutated
// after creation.
type Entry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Seq       uint64            `json:"seq"`
	Kind      Kind              `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// Sink receives entries. *Activity is the production implementation.
type Sink interface {
	Append(entry Entry)
}

var seq atomic.Uint64

// now is swapped in tests.
var now = time.Now

// NewEntry stamps a new entry with a fresh ID, the capture time and the next
// process-wide sequence number.
func NewEntry(kind Kind, message string, details map[string]string) Entry {
	var copied map[string]string
	if len(details) > 0 {
		copied = make(map[string]string, len(details))
		for k, v := range details {
			copied[k] = v
		}
	}
	return Entry{
		ID:        uuid.New().String(),
		Timestamp: now().UTC(),
		Seq:       seq.Add(1),
		Kind:      kind,
		Message:   message,
		Details:   copied,
	}
}

// Newer reports whether a sorts before b in a newest-first listing.
func Newer(a, b Entry) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.Seq > b.Seq
}

// Info creates an informational entry.
func Info(message string) Entry { return NewEntry(KindInfo, message, nil) }

// Success creates a success entry.
func Success(message string) Entry { return NewEntry(KindSuccess, message, nil) }

// Error creates an error entry carrying err's text as the "error" detail.
func Error(message string, err error) Entry {
	var details map[string]string
	if err != nil {
		details = map[string]string{"error": err.Error()}
	}
	return NewEntry(KindError, message, details)
}
