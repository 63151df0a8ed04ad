package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rajdesai17/agent-pa/internal/agent/transcript"
)

// State is the session lifecycle stage. Stopping and Terminated are
// absorbing with respect to polling: no tick acts once the state leaves
// Active.
type State uint32

const (
	StateStarting State = iota
	StateActive
	StateStopping
	StateTerminated
)

func (s State) String() string {
	return [...]string{"starting", "active", "stopping", "terminated"}[s]
}

// Options is the immutable per-session configuration snapshot.
type Options struct {
	Language string
	BotName  string
}

// ResponseRecord is one generated reply queued for delivery.
type ResponseRecord struct {
	Text      string             `json:"text"`
	Audio     []byte             `json:"-"`
	AudioPath string             `json:"audioPath,omitempty"`
	AudioErr  string             `json:"audioError,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Trigger   transcript.Segment `json:"triggerSegment"`
	CacheHit  bool               `json:"cacheHit,omitempty"`
}

// Session is the live orchestration state for one meeting.
type Session struct {
	meetingID      string
	meetingContext string
	options        Options
	startedAt      time.Time

	mu             sync.Mutex
	state          State
	lastActivity   time.Time
	bot            *BotInfo
	degraded       bool
	lastSeenCount  int
	responses      []ResponseRecord
	lastResponseAt time.Time
	recentTriggers []string // segment texts already responded to
	recentReplies  []string // reply texts already queued

	buffer *transcript.Buffer
	seen   *transcript.Dedup

	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(meetingID, meetingContext string, opts Options) *Session {
	now := time.Now()
	return &Session{
		meetingID:      meetingID,
		meetingContext: meetingContext,
		options:        opts,
		startedAt:      now,
		lastActivity:   now,
		state:          StateStarting,
		buffer:         transcript.NewBuffer(),
		seen:           transcript.NewDedup(),
		done:           make(chan struct{}),
	}
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// beginStop transitions Active/Starting -> Stopping exactly once.
func (s *Session) beginStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopping || s.state == StateTerminated {
		return false
	}
	s.state = StateStopping
	return true
}

func (s *Session) touch() {
	s.mu.Lock()
	if now := time.Now(); now.After(s.lastActivity) {
		s.lastActivity = now
	}
	s.mu.Unlock()
}

// takeNewCount atomically advances the seen-count watermark and reports how
// many trailing segments are new.
func (s *Session) takeNewCount(total int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if total <= s.lastSeenCount {
		return 0
	}
	n := total - s.lastSeenCount
	s.lastSeenCount = total
	return n
}

// underCooldown reports whether a response was dispatched too recently.
func (s *Session) underCooldown(cooldown time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lastResponseAt.IsZero() && time.Since(s.lastResponseAt) < cooldown
}

// repeatedTrigger reports whether this exact segment text was already
// responded to recently (duplicate ASR output).
func (s *Session) repeatedTrigger(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return contains(s.recentTriggers, text)
}

// repeatedReply reports whether this reply text was already queued recently.
func (s *Session) repeatedReply(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return contains(s.recentReplies, text)
}

// recordResponse appends to the response queue and refreshes the guard
// windows.
func (s *Session) recordResponse(rec ResponseRecord, window int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.responses = append(s.responses, rec)
	s.lastResponseAt = rec.Timestamp
	s.recentTriggers = pushBounded(s.recentTriggers, rec.Trigger.Text, window)
	s.recentReplies = pushBounded(s.recentReplies, rec.Text, window)
}

// Responses returns a copy of the response queue.
func (s *Session) Responses() []ResponseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]ResponseRecord, len(s.responses))
	copy(result, s.responses)
	return result
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func pushBounded(list []string, v string, max int) []string {
	list = append(list, v)
	if max > 0 && len(list) > max {
		list = list[len(list)-max:]
	}
	return list
}

// formatDuration renders elapsed time as "XmYs", matching the status payload.
func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}
