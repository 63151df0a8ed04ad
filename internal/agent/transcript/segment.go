// Package transcript holds the per-session transcript buffer and the
// segment-identity deduplication set.
package transcript

import "fmt"

// Segment is one atomic utterance delivered by the transcript source.
type Segment struct {
	Speaker string  `json:"speaker,omitempty"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Identity derives the dedup key. Two segments with the same offsets and
// text are the same segment even if delivered twice by an overlapping poll
// window.
func (s Segment) Identity() string {
	return fmt.Sprintf("%v|%v|%s", s.Start, s.End, s.Text)
}
