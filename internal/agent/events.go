package agent

import "time"

// EventKind classifies engine events for the boundary layer.
type EventKind string

const (
	EventSessionStarted    EventKind = "session_started"
	EventSessionStopped    EventKind = "session_stopped"
	EventTranscriptSegment EventKind = "transcript"
	EventResponseQueued    EventKind = "response"
)

// Event is a non-blocking notification consumed by the WebSocket broadcaster.
type Event struct {
	Kind      EventKind `json:"kind"`
	MeetingID string    `json:"meetingId"`
	Speaker   string    `json:"speaker,omitempty"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Events returns the engine event stream.
func (c *Core) Events() <-chan Event {
	return c.events
}

// emit sends an event without blocking; slow consumers drop events.
func (c *Core) emit(e Event) {
	e.Timestamp = time.Now()
	select {
	case c.events <- e:
	default:
	}
}
