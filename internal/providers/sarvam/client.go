// Package sarvam implements speech synthesis against the Sarvam
// text-to-speech API.
package sarvam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rajdesai17/agent-pa/internal/agent"
	apperrors "github.com/rajdesai17/agent-pa/internal/errors"
	"github.com/rajdesai17/agent-pa/internal/resilience"
	"github.com/rajdesai17/agent-pa/internal/trace"
)

const providerName = "sarvam"

// API limits and defaults per the provider's contract.
const (
	maxTextLength = 1500
	sampleRate    = 22050
	modelName     = "bulbul:v2"
	synthTimeout  = 30 * time.Second
)

// supportedLanguages is the provider's BCP-47 allowlist. Anything else
// falls back to en-IN.
var supportedLanguages = map[string]bool{
	"bn-IN": true, "en-IN": true, "gu-IN": true, "hi-IN": true,
	"kn-IN": true, "ml-IN": true, "mr-IN": true, "od-IN": true,
	"pa-IN": true, "ta-IN": true, "te-IN": true,
}

// Client calls the text-to-speech endpoint with circuit protection.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	breaker *resilience.Breaker
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: synthTimeout},
		breaker: resilience.NewBreaker(providerName, resilience.DefaultConfig()),
	}
}

var _ agent.SpeechSynthesizer = (*Client)(nil)

// SupportedLanguage reports whether code is in the provider's allowlist.
func (c *Client) SupportedLanguage(code string) bool {
	return supportedLanguages[code]
}

type synthRequest struct {
	Text               string  `json:"text"`
	TargetLanguageCode string  `json:"target_language_code"`
	Speaker            string  `json:"speaker"`
	Pitch              float64 `json:"pitch"`
	Pace               float64 `json:"pace"`
	Loudness           float64 `json:"loudness"`
	SpeechSampleRate   int     `json:"speech_sample_rate"`
	Model              string  `json:"model"`
}

type synthResponse struct {
	RequestID string   `json:"request_id"`
	Audios    []string `json:"audios"`
}

// Synthesize converts text to a WAV payload. Text beyond the provider's
// limit is truncated; unsupported languages fall back to en-IN.
func (c *Client) Synthesize(ctx context.Context, text string, opts agent.SynthesisOptions) ([]byte, error) {
	if c.apiKey == "" {
		return nil, apperrors.Provider(providerName, "API key not configured")
	}
	if len(text) > maxTextLength {
		text = text[:maxTextLength]
	}
	language := opts.Language
	if !supportedLanguages[language] {
		language = "en-IN"
	}
	voice := opts.Voice
	if voice == "" {
		voice = "anushka"
	}

	body := synthRequest{
		Text:               text,
		TargetLanguageCode: language,
		Speaker:            voice,
		Pace:               1.0,
		Loudness:           1.0,
		SpeechSampleRate:   sampleRate,
		Model:              modelName,
	}

	audio, err := resilience.ExecuteWithResult(c.breaker, func() ([]byte, error) {
		return c.synthesize(ctx, body)
	})
	if err != nil {
		return nil, err
	}

	trace.Logger(ctx).Debug("speech synthesized",
		"language", language, "voice", voice, "bytes", len(audio))
	return audio, nil
}

func (c *Client) synthesize(ctx context.Context, body synthRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/text-to-speech", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "build request")
	}
	req.Header.Set("api-subscription-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeTimeout, "synthesis timed out").
				WithMetadata("provider", providerName)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "synthesis service unreachable").
			WithMetadata("provider", providerName)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.FromHTTPStatus(resp.StatusCode), statusMessage(resp.StatusCode)).
			WithMetadata("provider", providerName)
	}

	var out synthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(&out); err != nil {
		return nil, apperrors.WrapProvider(err, providerName, "decode response")
	}
	if len(out.Audios) == 0 {
		return nil, apperrors.Provider(providerName, "no audio received")
	}

	audio, err := base64.StdEncoding.DecodeString(out.Audios[0])
	if err != nil {
		return nil, apperrors.WrapProvider(err, providerName, "decode audio payload")
	}
	return audio, nil
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad request, check text and parameters"
	case http.StatusForbidden:
		return "API key invalid or forbidden"
	case http.StatusUnprocessableEntity:
		return "unprocessable entity, check language code"
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusInternalServerError:
		return "synthesis provider server error"
	default:
		return "speech synthesis failed"
	}
}
