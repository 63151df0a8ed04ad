// Package agent implements the meeting-agent orchestration engine: the
// session registry, the per-session lifecycle state machine, and the
// transcript-polling response pipeline.
package agent

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rajdesai17/agent-pa/internal/agent/transcript"
	"github.com/rajdesai17/agent-pa/internal/agent/trigger"
	"github.com/rajdesai17/agent-pa/internal/audiocache"
	"github.com/rajdesai17/agent-pa/internal/config"
	apperrors "github.com/rajdesai17/agent-pa/internal/errors"
	"github.com/rajdesai17/agent-pa/internal/fingerprint"
	"github.com/rajdesai17/agent-pa/internal/trace"
)

// Canned summary strings, kept stable for the boundary layer.
const (
	summaryEmpty  = "No transcript available for summary."
	summaryFailed = "Summary generation failed."

	// Spoken when reply generation fails so the agent stays responsive.
	fallbackReply = "I apologize, I'm having trouble processing that right now."
)

// historyClearer is implemented by reply generators that accumulate
// cross-call conversation state; it is invoked once the registry empties.
type historyClearer interface {
	ClearHistory()
}

// Deps bundles the external collaborators consumed by the engine.
type Deps struct {
	Bots        BotProvisioner
	Transcripts TranscriptSource
	Fallback    TranscriptSource // degraded-mode source, nil when policy is halt
	Replies     ReplyGenerator
	Synth       SpeechSynthesizer
	Cache       audiocache.Store
}

// Core owns the process-wide session registry and drives each session's
// polling loop. Sessions share nothing except the audio cache.
type Core struct {
	cfg     *config.Config
	deps    Deps
	trigger *trigger.Detector

	mu       sync.RWMutex
	sessions map[string]*Session

	events chan Event
}

// New creates the orchestration engine.
func New(cfg *config.Config, deps Deps) *Core {
	return &Core{
		cfg:  cfg,
		deps: deps,
		trigger: trigger.New(trigger.Config{
			GapSeconds: cfg.SilenceGapSec,
		}),
		sessions: make(map[string]*Session),
		events:   make(chan Event, EventBuffer),
	}
}

// StartResult reports a session start, including degraded-mode detail.
type StartResult struct {
	SessionID string   `json:"sessionId"`
	Bot       *BotInfo `json:"botInfo,omitempty"`
	Degraded  bool     `json:"degraded,omitempty"`
	Message   string   `json:"message"`
}

// Start provisions a bot and begins the session. Provisioning failure does
// not abort the start: the session proceeds in degraded mode.
// Starting a meeting that already has a Starting/Active session fails with
// a conflict.
func (c *Core) Start(ctx context.Context, meetingID, meetingContext string, opts Options) (*StartResult, error) {
	log := trace.Logger(ctx)

	if strings.TrimSpace(meetingID) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "meetingId is required")
	}
	if opts.BotName == "" {
		opts.BotName = c.cfg.BotName
	}

	s := newSession(meetingID, meetingContext, opts)

	c.mu.Lock()
	if existing, ok := c.sessions[meetingID]; ok {
		state := existing.State()
		if state == StateStarting || state == StateActive {
			c.mu.Unlock()
			return nil, apperrors.Newf(apperrors.CodeConflict, "session already active for meeting %s", meetingID)
		}
	}
	c.sessions[meetingID] = s
	c.mu.Unlock()

	bot, err := c.deps.Bots.RequestBot(ctx, meetingID, BotOptions{BotName: opts.BotName})
	if err != nil {
		log.Warn("bot provisioning failed, starting degraded", "meeting_id", meetingID, "error", err)
		s.mu.Lock()
		s.degraded = true
		s.mu.Unlock()
	} else {
		s.mu.Lock()
		s.bot = bot
		s.mu.Unlock()
	}

	if opts.Language != "" && opts.Language != "en" {
		if err := c.deps.Bots.UpdateBotConfig(ctx, meetingID, BotConfig{Language: opts.Language}); err != nil {
			log.Warn("bot language configuration failed", "meeting_id", meetingID, "language", opts.Language, "error", err)
		}
	}

	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	// A Stop that raced the provisioning call above has already torn the
	// session down; activating it now would leak the poll loop.
	s.mu.Lock()
	if s.state != StateStarting {
		s.mu.Unlock()
		cancel()
		return nil, apperrors.Newf(apperrors.CodeConflict, "session for meeting %s was stopped during provisioning", meetingID)
	}
	s.cancel = cancel
	s.state = StateActive
	s.mu.Unlock()

	go c.run(pollCtx, s)

	c.emit(Event{Kind: EventSessionStarted, MeetingID: meetingID})
	log.Info("meeting session started", "meeting_id", meetingID, "degraded", bot == nil)

	result := &StartResult{
		SessionID: meetingID,
		Bot:       bot,
		Degraded:  bot == nil,
		Message:   "Meeting session started successfully",
	}
	return result, nil
}

// run is the per-session polling loop. One cooperative task per session;
// suspension points are only the collaborator calls inside tick.
func (c *Core) run(ctx context.Context, s *Session) {
	defer close(s.done)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx, s)
		}
	}
}

// tick fetches the transcript snapshot and processes the newly appended
// suffix. Provider failures are logged and skipped; the loop continues on
// the next tick.
func (c *Core) tick(ctx context.Context, s *Session) {
	ctx, span := trace.StartSpan(ctx, "session_tick")
	defer span.End()
	span.SetAttr("meeting_id", s.meetingID)
	log := trace.Logger(ctx)

	// A late tick must never act on a stopped or replaced session.
	if current, ok := c.lookup(s.meetingID); !ok || current != s || s.State() != StateActive {
		return
	}

	segments, err := c.deps.Transcripts.GetTranscript(ctx, s.meetingID)
	if err != nil {
		log.Warn("transcript fetch failed", "meeting_id", s.meetingID, "error", err)
		if c.cfg.DegradedMode != config.DegradedSynthetic || c.deps.Fallback == nil {
			return
		}
		segments, err = c.deps.Fallback.GetTranscript(ctx, s.meetingID)
		if err != nil {
			log.Warn("degraded transcript source failed", "meeting_id", s.meetingID, "error", err)
			return
		}
	}

	n := s.takeNewCount(len(segments))
	if n == 0 {
		return
	}
	s.touch()

	for _, seg := range segments[len(segments)-n:] {
		if !s.seen.Observe(seg.Identity()) {
			continue
		}
		index := s.buffer.Append(seg)
		c.emit(Event{Kind: EventTranscriptSegment, MeetingID: s.meetingID, Speaker: seg.Speaker, Text: seg.Text})

		var prev *transcript.Segment
		if entry, ok := s.buffer.At(index - 1); ok {
			prev = &entry.Segment
		}
		reason := c.trigger.Evaluate(seg, prev)
		if reason == trigger.ReasonNone {
			continue
		}

		if s.repeatedTrigger(seg.Text) {
			log.Debug("suppressing repeated trigger text", "meeting_id", s.meetingID, "text", seg.Text)
			continue
		}
		if s.underCooldown(c.cfg.ResponseCooldown) {
			log.Debug("suppressing trigger during cooldown", "meeting_id", s.meetingID, "reason", reason)
			continue
		}

		c.respond(ctx, s, seg, index, reason)
	}
}

// respond generates a reply, resolves audio via the cache or the
// synthesizer, and appends the record to the session's response queue.
func (c *Core) respond(ctx context.Context, s *Session, seg transcript.Segment, index int, reason trigger.Reason) {
	ctx, span := trace.StartSpan(ctx, "respond")
	defer span.End()
	span.SetAttr("meeting_id", s.meetingID)
	span.SetAttr("reason", string(reason))
	log := trace.Logger(ctx)

	state := MeetingState{
		Duration:     formatDuration(time.Since(s.startedAt)),
		Participants: s.buffer.Participants(),
		Topic:        s.meetingContext,
	}
	if state.Topic == "" {
		state.Topic = "General discussion"
	}

	text, err := c.deps.Replies.GenerateReply(ctx, seg.Text, s.meetingContext, state)
	if err != nil {
		log.Error("reply generation failed", "meeting_id", s.meetingID, "error", err)
		text = fallbackReply
	}
	if s.repeatedReply(text) {
		log.Debug("suppressing duplicate reply text", "meeting_id", s.meetingID)
		s.buffer.MarkProcessed(index)
		return
	}

	lang := s.options.Language
	if lang == "" || !c.deps.Synth.SupportedLanguage(lang) {
		lang = c.cfg.DefaultLanguage
	}

	rec := ResponseRecord{
		Text:      text,
		Timestamp: time.Now(),
		Trigger:   seg,
	}

	key := fingerprint.New(text, lang, c.cfg.TTSVoice)
	if entry := c.cacheLookup(ctx, key); entry != nil {
		if audio, err := os.ReadFile(entry.FilePath); err == nil {
			rec.Audio = audio
			rec.AudioPath = entry.FilePath
			rec.CacheHit = true
			log.Info("audio served from cache", "meeting_id", s.meetingID, "file", entry.FilePath)
		} else {
			log.Warn("cached artifact unreadable, resynthesizing", "file", entry.FilePath, "error", err)
		}
	}

	if rec.Audio == nil {
		audio, err := c.deps.Synth.Synthesize(ctx, text, SynthesisOptions{Language: lang, Voice: c.cfg.TTSVoice})
		if err != nil {
			// Responses survive synthesis failure: text-only record.
			log.Error("speech synthesis failed", "meeting_id", s.meetingID, "error", err)
			rec.AudioErr = err.Error()
		} else {
			rec.Audio = audio
			if path, err := c.saveArtifact(s.meetingID, audio); err != nil {
				log.Warn("could not save audio artifact", "meeting_id", s.meetingID, "error", err)
			} else {
				rec.AudioPath = path
				c.cacheInsert(ctx, &audiocache.Entry{
					Fingerprint: key,
					Text:        text,
					Language:    lang,
					Voice:       c.cfg.TTSVoice,
					FilePath:    path,
					CreatedAt:   time.Now(),
				})
			}
		}
	}

	s.recordResponse(rec, c.cfg.RepeatWindow)
	s.buffer.MarkProcessed(index)
	c.emit(Event{Kind: EventResponseQueued, MeetingID: s.meetingID, Text: text})
	log.Info("response queued", "meeting_id", s.meetingID, "reason", reason, "cache_hit", rec.CacheHit)
}

// cacheLookup fails open: storage errors are cache misses.
func (c *Core) cacheLookup(ctx context.Context, key fingerprint.Key) *audiocache.Entry {
	if c.deps.Cache == nil {
		return nil
	}
	entry, err := c.deps.Cache.Lookup(ctx, key)
	if err != nil {
		trace.Logger(ctx).Warn("audio cache lookup failed, treating as miss", "error", err)
		return nil
	}
	return entry
}

// cacheInsert is best-effort: failures are logged, never fatal.
func (c *Core) cacheInsert(ctx context.Context, entry *audiocache.Entry) {
	if c.deps.Cache == nil {
		return
	}
	if err := c.deps.Cache.Insert(ctx, entry); err != nil {
		trace.Logger(ctx).Warn("audio cache insert failed", "error", err)
	}
}

func (c *Core) saveArtifact(meetingID string, audio []byte) (string, error) {
	if err := os.MkdirAll(c.cfg.AudioDir, 0o755); err != nil {
		return "", err
	}
	name := "response_" + sanitizeID(meetingID) + "_" + time.Now().UTC().Format("20060102T150405.000000000") + ".wav"
	path := filepath.Join(c.cfg.AudioDir, name)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '.':
			return '-'
		}
		return r
	}, id)
}

func (c *Core) lookup(meetingID string) (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[meetingID]
	return s, ok
}

// StopResult reports a session stop.
type StopResult struct {
	MeetingID    string `json:"meetingId"`
	Summary      string `json:"summary"`
	BotStopped   bool   `json:"botStopped"`
	BotStopError string `json:"botStopError,omitempty"`
}

// Stop cancels the polling task, tears down the bot, generates the meeting
// summary, and removes the session. Sub-step failures never leave partial
// state in the registry.
func (c *Core) Stop(ctx context.Context, meetingID string) (*StopResult, error) {
	log := trace.Logger(ctx)

	s, ok := c.lookup(meetingID)
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "no active session found for meeting %s", meetingID)
	}
	if !s.beginStop() {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "session for meeting %s is already stopping", meetingID)
	}

	// Cancel the poll task and wait it out so a late tick can never write
	// into a removed session.
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-s.done
	}

	result := &StopResult{MeetingID: meetingID, BotStopped: true}
	if err := c.deps.Bots.StopBot(ctx, meetingID); err != nil {
		// Teardown failure does not block session removal.
		log.Warn("bot teardown failed", "meeting_id", meetingID, "error", err)
		result.BotStopped = false
		result.BotStopError = err.Error()
	}

	result.Summary = c.generateSummary(ctx, s)

	// A new Start may have replaced the map entry while teardown was in
	// flight; only remove the session this Stop owns.
	c.mu.Lock()
	if c.sessions[meetingID] == s {
		delete(c.sessions, meetingID)
	}
	idle := len(c.sessions) == 0
	c.mu.Unlock()
	s.setState(StateTerminated)

	if idle {
		if hc, ok := c.deps.Replies.(historyClearer); ok {
			hc.ClearHistory()
		}
	}

	c.emit(Event{Kind: EventSessionStopped, MeetingID: meetingID})
	log.Info("meeting session stopped", "meeting_id", meetingID, "bot_stopped", result.BotStopped)
	return result, nil
}

func (c *Core) generateSummary(ctx context.Context, s *Session) string {
	if s.buffer.Len() == 0 {
		return summaryEmpty
	}

	meta := SummaryMetadata{
		Date:         s.startedAt,
		Duration:     formatDuration(time.Since(s.startedAt)),
		Participants: s.buffer.Participants(),
	}
	summary, err := c.deps.Replies.GenerateSummary(ctx, s.buffer.FullText(), meta)
	if err != nil {
		trace.Logger(ctx).Error("summary generation failed", "meeting_id", s.meetingID, "error", err)
		return summaryFailed
	}
	return summary
}

// Status is a read-only session snapshot.
type Status struct {
	Exists             bool      `json:"exists"`
	State              string    `json:"state,omitempty"`
	StartedAt          time.Time `json:"startTime,omitzero"`
	Duration           string    `json:"duration,omitempty"`
	TranscriptSegments int       `json:"transcriptSegments"`
	Responses          int       `json:"responses"`
	Participants       []string  `json:"participants,omitempty"`
	LastActivity       time.Time `json:"lastActivity,omitzero"`
	Degraded           bool      `json:"degraded,omitempty"`
}

// Status reports the session snapshot; Exists is false for unknown meetings.
func (c *Core) Status(meetingID string) Status {
	s, ok := c.lookup(meetingID)
	if !ok {
		return Status{}
	}

	s.mu.Lock()
	state := s.state
	lastActivity := s.lastActivity
	degraded := s.degraded
	responses := len(s.responses)
	s.mu.Unlock()

	return Status{
		Exists:             true,
		State:              state.String(),
		StartedAt:          s.startedAt,
		Duration:           formatDuration(time.Since(s.startedAt)),
		TranscriptSegments: s.buffer.Len(),
		Responses:          responses,
		Participants:       s.buffer.Participants(),
		LastActivity:       lastActivity,
		Degraded:           degraded,
	}
}

// Transcript returns the buffered segments for a meeting.
func (c *Core) Transcript(meetingID string) ([]transcript.Entry, error) {
	s, ok := c.lookup(meetingID)
	if !ok || s.buffer.Len() == 0 {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "no transcript available for meeting %s", meetingID)
	}
	return s.buffer.Entries(), nil
}

// Responses returns the queued response records for a meeting.
func (c *Core) SessionResponses(meetingID string) ([]ResponseRecord, error) {
	s, ok := c.lookup(meetingID)
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "no active session found for meeting %s", meetingID)
	}
	return s.Responses(), nil
}

// CleanupResult is one per-meeting outcome from CleanupAll.
type CleanupResult struct {
	MeetingID string      `json:"meetingId"`
	Result    *StopResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// CleanupAll stops every registered session, collecting per-meeting results
// and never aborting early on a failure.
func (c *Core) CleanupAll(ctx context.Context) []CleanupResult {
	c.mu.RLock()
	ids := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	results := make([]CleanupResult, 0, len(ids))
	for _, id := range ids {
		res, err := c.Stop(ctx, id)
		if err != nil {
			results = append(results, CleanupResult{MeetingID: id, Error: err.Error()})
			continue
		}
		results = append(results, CleanupResult{MeetingID: id, Result: res})
	}
	return results
}

// SessionSummary pairs a meeting ID with its status snapshot.
type SessionSummary struct {
	MeetingID string `json:"meetingId"`
	Status
}

// Sessions lists every registered session in meeting-ID order.
func (c *Core) Sessions() []SessionSummary {
	c.mu.RLock()
	ids := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	sort.Strings(ids)

	out := make([]SessionSummary, 0, len(ids))
	for _, id := range ids {
		st := c.Status(id)
		if !st.Exists {
			continue
		}
		out = append(out, SessionSummary{MeetingID: id, Status: st})
	}
	return out
}

// SessionCount returns the number of registered sessions.
func (c *Core) SessionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
