package transcript

import (
	"strings"
	"testing"
)

func TestSegmentIdentity(t *testing.T) {
	a := Segment{Text: "hello", Start: 0, End: 2}
	b := Segment{Text: "hello", Start: 0, End: 2}
	if a.Identity() != b.Identity() {
		t.Error("equal segments should share identity")
	}

	c := Segment{Text: "hello", Start: 0, End: 3}
	if a.Identity() == c.Identity() {
		t.Error("different offsets should produce different identities")
	}
	d := Segment{Text: "goodbye", Start: 0, End: 2}
	if a.Identity() == d.Identity() {
		t.Error("different text should produce different identities")
	}
}

func TestBufferAppendAndMark(t *testing.T) {
	b := NewBuffer()
	i := b.Append(Segment{Text: "first", Start: 0, End: 1})
	j := b.Append(Segment{Text: "second", Start: 1, End: 2})

	if b.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", b.Len())
	}
	if i != 0 || j != 1 {
		t.Errorf("expected indices 0,1 got %d,%d", i, j)
	}

	b.MarkProcessed(j)
	entry, ok := b.At(j)
	if !ok || !entry.Processed {
		t.Error("expected second entry processed")
	}
	entry, _ = b.At(i)
	if entry.Processed {
		t.Error("first entry should be unprocessed")
	}

	// Out-of-range marks are ignored
	b.MarkProcessed(99)
	b.MarkProcessed(-1)
}

func TestBufferParticipants(t *testing.T) {
	b := NewBuffer()
	b.Append(Segment{Speaker: "Alice", Text: "hi"})
	b.Append(Segment{Speaker: "Bob", Text: "hello"})
	b.Append(Segment{Speaker: "Alice", Text: "again"})
	b.Append(Segment{Text: "unattributed"})

	got := b.Participants()
	if len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Errorf("expected [Alice Bob], got %v", got)
	}
}

func TestBufferFullText(t *testing.T) {
	b := NewBuffer()
	b.Append(Segment{Speaker: "Alice", Text: "hi"})
	b.Append(Segment{Text: "who said that"})

	text := b.FullText()
	if !strings.Contains(text, "Alice: hi") {
		t.Errorf("missing attributed line: %q", text)
	}
	if !strings.Contains(text, "Speaker: who said that") {
		t.Errorf("missing fallback speaker line: %q", text)
	}
}

func TestDedupObserve(t *testing.T) {
	d := NewDedup()
	seg := Segment{Text: "hello", Start: 0, End: 2}

	if !d.Observe(seg.Identity()) {
		t.Fatal("first observation should succeed")
	}
	if d.Observe(seg.Identity()) {
		t.Fatal("second observation should be rejected")
	}
	if d.Len() != 1 {
		t.Errorf("expected 1 identity, got %d", d.Len())
	}
}

func TestDedupSessionsIndependent(t *testing.T) {
	a, b := NewDedup(), NewDedup()
	a.Observe("x")
	if !b.Observe("x") {
		t.Error("dedup sets must be session-scoped")
	}
}
