package transcript

import (
	"strings"
	"sync"
	"time"
)

// Entry is a buffered segment plus processing state.
type Entry struct {
	Segment
	Processed  bool      `json:"processed"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Buffer is the append-only per-session transcript store. Entries are never
// mutated after append except for the Processed flag.
type Buffer struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewBuffer creates an empty transcript buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append stores a new segment and returns its index.
func (b *Buffer) Append(seg Segment) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, Entry{Segment: seg, ReceivedAt: time.Now()})
	return len(b.entries) - 1
}

// MarkProcessed flags the entry at index once a response decision was made.
func (b *Buffer) MarkProcessed(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index >= 0 && index < len(b.entries) {
		b.entries[index].Processed = true
	}
}

// Len returns the number of buffered segments.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// At returns the entry at index.
func (b *Buffer) At(index int) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if index < 0 || index >= len(b.entries) {
		return Entry{}, false
	}
	return b.entries[index], true
}

// Entries returns a copy of all buffered entries.
func (b *Buffer) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]Entry, len(b.entries))
	copy(result, b.entries)
	return result
}

// Participants returns the distinct speakers observed, in first-seen order.
func (b *Buffer) Participants() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[string]struct{}, 4)
	var result []string
	for _, e := range b.entries {
		if e.Speaker == "" {
			continue
		}
		if _, ok := seen[e.Speaker]; ok {
			continue
		}
		seen[e.Speaker] = struct{}{}
		result = append(result, e.Speaker)
	}
	return result
}

// FullText renders the whole transcript as "Speaker: text" lines, one per
// segment, for summary generation.
func (b *Buffer) FullText() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lines := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		speaker := e.Speaker
		if speaker == "" {
			speaker = "Speaker"
		}
		lines = append(lines, speaker+": "+e.Text)
	}
	return strings.Join(lines, "\n")
}
