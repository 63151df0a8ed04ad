// Package trigger decides whether the agent should respond to an utterance.
package trigger

import (
	"strings"

	"github.com/rajdesai17/agent-pa/internal/agent/transcript"
)

// Reason identifies which rule fired.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonWakeWord   Reason = "wake_word"
	ReasonQuestion   Reason = "question"
	ReasonSilenceGap Reason = "silence_gap"
	ReasonWrapUp     Reason = "wrap_up"
)

// Config tunes the trigger rules.
type Config struct {
	WakeWords  []string
	WrapUpCues []string
	GapSeconds float64 // pause between segments that invites the agent in
}

// DefaultConfig returns the stock rule set.
func DefaultConfig() Config {
	return Config{
		WakeWords:  []string{"ai", "assistant", "bot"},
		WrapUpCues: []string{"summary", "wrap up", "next steps"},
		GapSeconds: 5,
	}
}

// Detector evaluates trigger rules. It is a pure decision function: the
// cooldown and repeat guards depend on mutable session state and live with
// the caller.
type Detector struct {
	cfg Config
}

// New creates a detector.
func New(cfg Config) *Detector {
	if len(cfg.WakeWords) == 0 {
		cfg.WakeWords = DefaultConfig().WakeWords
	}
	if len(cfg.WrapUpCues) == 0 {
		cfg.WrapUpCues = DefaultConfig().WrapUpCues
	}
	if cfg.GapSeconds <= 0 {
		cfg.GapSeconds = DefaultConfig().GapSeconds
	}
	return &Detector{cfg: cfg}
}

// Evaluate applies the rules in order and returns the first match.
// prev is the previously buffered segment, nil for the first one.
func (d *Detector) Evaluate(seg transcript.Segment, prev *transcript.Segment) Reason {
	text := strings.ToLower(seg.Text)

	for _, w := range d.cfg.WakeWords {
		if strings.Contains(text, w) {
			return ReasonWakeWord
		}
	}

	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		return ReasonQuestion
	}

	if prev != nil && seg.Start-prev.End > d.cfg.GapSeconds {
		return ReasonSilenceGap
	}

	for _, cue := range d.cfg.WrapUpCues {
		if strings.Contains(text, cue) {
			return ReasonWrapUp
		}
	}

	return ReasonNone
}
