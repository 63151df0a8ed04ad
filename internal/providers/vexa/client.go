// Package vexa implements the bot-provisioning and transcript-source
// collaborators against the Vexa meeting-bot gateway.
package vexa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rajdesai17/agent-pa/internal/agent"
	"github.com/rajdesai17/agent-pa/internal/agent/transcript"
	apperrors "github.com/rajdesai17/agent-pa/internal/errors"
	"github.com/rajdesai17/agent-pa/internal/resilience"
	"github.com/rajdesai17/agent-pa/internal/trace"
)

const providerName = "vexa"

// Per-operation timeouts. Transcript polls are frequent and must stay short.
const (
	provisionTimeout  = 30 * time.Second
	transcriptTimeout = 5 * time.Second
	configTimeout     = 5 * time.Second
	teardownTimeout   = 10 * time.Second
)

// Client talks to the Vexa REST gateway.
type Client struct {
	baseURL  string
	apiKey   string
	platform string
	httpc    *http.Client
}

// New creates a gateway client for one meeting platform.
func New(baseURL, apiKey, platform string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		platform: platform,
		httpc:    &http.Client{},
	}
}

var _ agent.BotProvisioner = (*Client)(nil)
var _ agent.TranscriptSource = (*Client)(nil)

// RequestBot asks the gateway to send a bot into the meeting. Transient
// gateway failures are retried with backoff; an "already provisioned"
// conflict is resolved by reusing the existing bot.
func (c *Client) RequestBot(ctx context.Context, meetingID string, opts agent.BotOptions) (*agent.BotInfo, error) {
	payload := map[string]string{
		"platform":          c.platform,
		"native_meeting_id": meetingID,
	}
	if opts.BotName != "" {
		payload["bot_name"] = opts.BotName
	}

	var info *agent.BotInfo
	err := resilience.Retry(ctx, resilience.ProvisioningRetryConfig(), func() error {
		callCtx, cancel := context.WithTimeout(ctx, provisionTimeout)
		defer cancel()

		var out struct {
			ID any `json:"id"`
		}
		if err := c.doJSON(callCtx, http.MethodPost, "/bots", payload, &out); err != nil {
			return err
		}
		info = &agent.BotInfo{
			ID:      idOrDefault(out.ID, meetingID),
			Message: "Bot requested successfully. It will join in ~10 seconds.",
		}
		return nil
	})
	if err == nil {
		return info, nil
	}

	if apperrors.IsCode(err, apperrors.CodeConflict) {
		trace.Logger(ctx).Info("bot already exists for meeting, reusing", "meeting_id", meetingID)
		existing, getErr := c.getBotInfo(ctx, meetingID)
		if getErr != nil {
			return nil, apperrors.Wrapf(err, apperrors.CodeConflict,
				"a bot is already active for meeting %s and could not be reused", meetingID).
				WithMetadata("provider", providerName)
		}
		existing.Reused = true
		existing.Message = "Using existing bot for this meeting."
		return existing, nil
	}
	return nil, err
}

func (c *Client) getBotInfo(ctx context.Context, meetingID string) (*agent.BotInfo, error) {
	callCtx, cancel := context.WithTimeout(ctx, configTimeout)
	defer cancel()

	var out struct {
		ID any `json:"id"`
	}
	if err := c.doJSON(callCtx, http.MethodGet, "/bots/"+c.platform+"/"+meetingID, nil, &out); err != nil {
		return nil, err
	}
	return &agent.BotInfo{ID: idOrDefault(out.ID, meetingID)}, nil
}

// UpdateBotConfig applies a configuration change to a live bot.
func (c *Client) UpdateBotConfig(ctx context.Context, meetingID string, cfg agent.BotConfig) error {
	callCtx, cancel := context.WithTimeout(ctx, configTimeout)
	defer cancel()

	payload := map[string]string{"language": cfg.Language}
	return c.doJSON(callCtx, http.MethodPut, "/bots/"+c.platform+"/"+meetingID+"/config", payload, nil)
}

// StopBot removes the bot from the meeting.
func (c *Client) StopBot(ctx context.Context, meetingID string) error {
	callCtx, cancel := context.WithTimeout(ctx, teardownTimeout)
	defer cancel()

	return c.doJSON(callCtx, http.MethodDelete, "/bots/"+c.platform+"/"+meetingID, nil, nil)
}

// GetTranscript fetches the current transcript snapshot. The gateway
// guarantees a prefix-stable, monotonically growing segment sequence.
func (c *Client) GetTranscript(ctx context.Context, meetingID string) ([]transcript.Segment, error) {
	callCtx, cancel := context.WithTimeout(ctx, transcriptTimeout)
	defer cancel()

	var out struct {
		Segments []transcript.Segment `json:"segments"`
	}
	if err := c.doJSON(callCtx, http.MethodGet, "/transcripts/"+c.platform+"/"+meetingID, nil, &out); err != nil {
		return nil, err
	}
	return out.Segments, nil
}

// doJSON performs one request/response cycle with API-key auth and maps
// failures into the structured error taxonomy.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "build request")
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return apperrors.Wrap(err, apperrors.CodeTimeout, "request timed out").
				WithMetadata("provider", providerName)
		}
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "gateway unreachable").
			WithMetadata("provider", providerName)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.Newf(apperrors.FromHTTPStatus(resp.StatusCode),
			"gateway returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail)).
			WithMetadata("provider", providerName)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapProvider(err, providerName, "decode response")
	}
	return nil
}

func idOrDefault(id any, def string) string {
	if id == nil {
		return def
	}
	if s := fmt.Sprint(id); s != "" {
		return s
	}
	return def
}
