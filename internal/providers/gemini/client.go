// Package gemini generates contextual replies and meeting summaries via the
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/rajdesai17/agent-pa/internal/agent"
	apperrors "github.com/rajdesai17/agent-pa/internal/errors"
	"github.com/rajdesai17/agent-pa/internal/resilience"
	"github.com/rajdesai17/agent-pa/internal/trace"
)

const providerName = "gemini"

// historyWindow bounds the conversation history included in reply prompts.
const historyWindow = 3

type exchange struct {
	input  string
	output string
}

// Client wraps the Gemini SDK with circuit protection and a bounded
// conversation history shared across sessions.
type Client struct {
	genai   *genai.Client
	model   string
	breaker *resilience.Breaker

	mu      sync.Mutex
	history []exchange
}

// New creates a reply generator backed by the given model.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperrors.WrapProvider(err, providerName, "create client")
	}
	return &Client{
		genai:   gc,
		model:   model,
		breaker: resilience.NewBreaker(providerName, resilience.DefaultConfig()),
	}, nil
}

var _ agent.ReplyGenerator = (*Client)(nil)

// GenerateReply produces a short conversational reply to the utterance,
// grounded in the meeting context and recent exchange history.
func (c *Client) GenerateReply(ctx context.Context, utterance, meetingContext string, state agent.MeetingState) (string, error) {
	prompt := c.buildReplyPrompt(utterance, meetingContext, state)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.history = append(c.history, exchange{input: utterance, output: text})
	if len(c.history) > historyWindow {
		c.history = c.history[len(c.history)-historyWindow:]
	}
	c.mu.Unlock()

	trace.Logger(ctx).Debug("reply generated", "model", c.model, "chars", len(text))
	return text, nil
}

// GenerateSummary produces a structured summary of the full transcript.
func (c *Client) GenerateSummary(ctx context.Context, fullTranscript string, meta agent.SummaryMetadata) (string, error) {
	prompt := buildSummaryPrompt(fullTranscript, meta)
	return c.generate(ctx, prompt)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := resilience.ExecuteWithResult(c.breaker, func() (*genai.GenerateContentResponse, error) {
		return c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	})
	if err != nil {
		return "", apperrors.WrapProvider(err, providerName, "generate content")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", apperrors.Provider(providerName, "model returned empty response")
	}
	return text, nil
}

func (c *Client) buildReplyPrompt(utterance, meetingContext string, state agent.MeetingState) string {
	participants := "Unknown"
	if len(state.Participants) > 0 {
		participants = strings.Join(state.Participants, ", ")
	}
	duration := state.Duration
	if duration == "" {
		duration = "Unknown"
	}
	topic := state.Topic
	if topic == "" {
		topic = "General discussion"
	}

	c.mu.Lock()
	lines := make([]string, 0, len(c.history))
	for _, h := range c.history {
		lines = append(lines, fmt.Sprintf("Human: %s\nAssistant: %s", h.input, h.output))
	}
	c.mu.Unlock()

	var b strings.Builder
	b.WriteString("You are an AI meeting assistant participating in a Google Meet call.\n\n")
	fmt.Fprintf(&b, "CONTEXT: %s\n\n", meetingContext)
	b.WriteString("CURRENT MEETING STATE:\n")
	fmt.Fprintf(&b, "- Participants: %s\n", participants)
	fmt.Fprintf(&b, "- Duration: %s\n", duration)
	fmt.Fprintf(&b, "- Topic: %s\n\n", topic)
	fmt.Fprintf(&b, "LATEST TRANSCRIPT: %q\n\n", utterance)
	b.WriteString("CONVERSATION HISTORY (last 3 exchanges):\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nINSTRUCTIONS:\n")
	b.WriteString("1. Respond naturally and helpfully to the conversation\n")
	b.WriteString("2. Keep responses concise (1-2 sentences max)\n")
	b.WriteString("3. Stay relevant to the meeting context\n")
	b.WriteString("4. Don't repeat information unless asked\n")
	b.WriteString("5. If asked to summarize, provide key points only\n")
	b.WriteString("6. Be professional but conversational\n\n")
	b.WriteString("Respond now:")
	return b.String()
}

func buildSummaryPrompt(fullTranscript string, meta agent.SummaryMetadata) string {
	var b strings.Builder
	b.WriteString("Please provide a comprehensive meeting summary based on this transcript:\n\n")
	b.WriteString("MEETING METADATA:\n")
	fmt.Fprintf(&b, "- Date: %s\n", meta.Date.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n", meta.Duration)
	fmt.Fprintf(&b, "- Participants: %s\n\n", strings.Join(meta.Participants, ", "))
	b.WriteString("FULL TRANSCRIPT:\n")
	b.WriteString(fullTranscript)
	b.WriteString("\n\nGenerate a summary with:\n")
	b.WriteString("1. Key Discussion Points (3-5 bullet points)\n")
	b.WriteString("2. Decisions Made\n")
	b.WriteString("3. Action Items\n")
	b.WriteString("4. Next Steps\n")
	b.WriteString("5. Important Quotes or Insights\n\n")
	b.WriteString("Format as structured text.")
	return b.String()
}

// ClearHistory drops the accumulated conversation history.
func (c *Client) ClearHistory() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
}
