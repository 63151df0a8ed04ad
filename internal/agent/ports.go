package agent

import (
	"context"
	"time"

	"github.com/rajdesai17/agent-pa/internal/agent/transcript"
)

// BotOptions configures a provisioning request.
type BotOptions struct {
	BotName string
}

// BotConfig carries a post-provisioning configuration change.
type BotConfig struct {
	Language string
}

// BotInfo describes the provisioned meeting bot.
type BotInfo struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
	Reused  bool   `json:"reused,omitempty"`
}

// BotProvisioner places, configures, and removes meeting bots.
// RequestBot must tolerate an already-provisioned conflict by reusing the
// existing bot rather than failing the session start.
type BotProvisioner interface {
	RequestBot(ctx context.Context, meetingID string, opts BotOptions) (*BotInfo, error)
	UpdateBotConfig(ctx context.Context, meetingID string, cfg BotConfig) error
	StopBot(ctx context.Context, meetingID string) error
}

// TranscriptSource returns the transcript snapshot for a meeting. Segments
// are a prefix-stable, monotonically growing ordered sequence.
type TranscriptSource interface {
	GetTranscript(ctx context.Context, meetingID string) ([]transcript.Segment, error)
}

// MeetingState is the derived state passed to reply generation.
type MeetingState struct {
	Duration     string
	Participants []string
	Topic        string
}

// SummaryMetadata accompanies a summary request.
type SummaryMetadata struct {
	Date         time.Time
	Duration     string
	Participants []string
}

// ReplyGenerator produces contextual replies and meeting summaries.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, utterance, meetingContext string, state MeetingState) (string, error)
	GenerateSummary(ctx context.Context, fullTranscript string, meta SummaryMetadata) (string, error)
}

// SynthesisOptions selects the speech output.
type SynthesisOptions struct {
	Language string
	Voice    string
}

// SpeechSynthesizer converts reply text to audio. Implementations truncate
// text exceeding their provider's maximum before the call.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error)
	SupportedLanguage(code string) bool
}
