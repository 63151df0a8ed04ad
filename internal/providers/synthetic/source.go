// Package synthetic provides a transcript source for degraded mode, used
// when the real gateway is unreachable and the degraded policy allows a
// stand-in conversation.
package synthetic

import (
	"context"

	"github.com/rajdesai17/agent-pa/internal/agent"
	"github.com/rajdesai17/agent-pa/internal/agent/transcript"
	"github.com/rajdesai17/agent-pa/internal/syncx"
)

// script is the canned conversation. Segments are revealed one per poll so
// consumers observe the same prefix-stable growth a live transcript has.
var script = []transcript.Segment{
	{Speaker: "Alex", Text: "Alright, let's get started with today's sync.", Start: 0, End: 3},
	{Speaker: "Priya", Text: "Sounds good. I finished the onboarding flow review yesterday.", Start: 4, End: 8},
	{Speaker: "Alex", Text: "Great. Hey assistant, can you note that down?", Start: 9, End: 12},
	{Speaker: "Priya", Text: "What's the timeline looking like for the next release?", Start: 13, End: 17},
	{Speaker: "Alex", Text: "We're targeting end of month, pending the QA pass.", Start: 18, End: 22},
	{Speaker: "Priya", Text: "Okay, let's do a quick summary and wrap up.", Start: 30, End: 34},
}

// Source serves the canned script independently per meeting.
type Source struct {
	progress *syncx.RWGuard[map[string]int]
}

func New() *Source {
	return &Source{progress: syncx.NewGuard(map[string]int{})}
}

var _ agent.TranscriptSource = (*Source)(nil)

// GetTranscript returns the script prefix revealed so far for the meeting,
// advancing by one segment per call until the script is exhausted.
func (s *Source) GetTranscript(_ context.Context, meetingID string) ([]transcript.Segment, error) {
	n := s.progress.Update(func(m *map[string]int) any {
		n := (*m)[meetingID]
		if n < len(script) {
			n++
			(*m)[meetingID] = n
		}
		return n
	}).(int)

	out := make([]transcript.Segment, n)
	copy(out, script[:n])
	return out, nil
}

// Reset forgets the progress for a meeting.
func (s *Source) Reset(meetingID string) {
	s.progress.Update(func(m *map[string]int) any {
		delete(*m, meetingID)
		return nil
	})
}
