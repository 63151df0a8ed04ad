package sarvam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rajdesai17/agent-pa/internal/agent"
	apperrors "github.com/rajdesai17/agent-pa/internal/errors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	return New(srv.URL, "test-key"), srv.Close
}

func TestSynthesize(t *testing.T) {
	wav := []byte("RIFF-fake-wav-data")
	var got synthRequest
	c, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("api-subscription-key") != "test-key" {
			t.Errorf("missing subscription key header")
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{
			"request_id": "req-1",
			"audios":     []string{base64.StdEncoding.EncodeToString(wav)},
		})
	})
	defer closeSrv()

	audio, err := c.Synthesize(context.Background(), "Hello there", agent.SynthesisOptions{Language: "hi-IN", Voice: "anushka"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(audio, wav) {
		t.Errorf("audio = %q", audio)
	}
	if got.TargetLanguageCode != "hi-IN" || got.Speaker != "anushka" {
		t.Errorf("request = %+v", got)
	}
	if got.Model != "bulbul:v2" || got.SpeechSampleRate != 22050 {
		t.Errorf("model/sample rate = %q/%d", got.Model, got.SpeechSampleRate)
	}
}

func TestSynthesizeUnsupportedLanguageFallsBack(t *testing.T) {
	var got synthRequest
	c, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"audios": []string{base64.StdEncoding.EncodeToString([]byte("x"))}})
	})
	defer closeSrv()

	if _, err := c.Synthesize(context.Background(), "hi", agent.SynthesisOptions{Language: "fr-FR"}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got.TargetLanguageCode != "en-IN" {
		t.Errorf("language = %q, want en-IN", got.TargetLanguageCode)
	}
}

func TestSynthesizeTruncatesLongText(t *testing.T) {
	var got synthRequest
	c, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"audios": []string{base64.StdEncoding.EncodeToString([]byte("x"))}})
	})
	defer closeSrv()

	long := strings.Repeat("a", 2000)
	if _, err := c.Synthesize(context.Background(), long, agent.SynthesisOptions{Language: "en-IN"}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(got.Text) != maxTextLength {
		t.Errorf("text length = %d, want %d", len(got.Text), maxTextLength)
	}
}

func TestSynthesizeStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		code   apperrors.Code
	}{
		{http.StatusBadRequest, apperrors.CodeValidation},
		{http.StatusForbidden, apperrors.CodeProvider},
		{http.StatusUnprocessableEntity, apperrors.CodeValidation},
		{http.StatusTooManyRequests, apperrors.CodeRateLimited},
		{http.StatusInternalServerError, apperrors.CodeUnavailable},
	}
	for _, tc := range cases {
		status := tc.status
		c, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		_, err := c.Synthesize(context.Background(), "hi", agent.SynthesisOptions{Language: "en-IN"})
		closeSrv()
		if !apperrors.IsCode(err, tc.code) {
			t.Errorf("status %d: code = %v, want %v", tc.status, apperrors.CodeOf(err), tc.code)
		}
	}
}

func TestSynthesizeEmptyAudios(t *testing.T) {
	c, closeSrv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"audios": []string{}})
	})
	defer closeSrv()

	_, err := c.Synthesize(context.Background(), "hi", agent.SynthesisOptions{Language: "en-IN"})
	if !apperrors.IsCode(err, apperrors.CodeProvider) {
		t.Fatalf("code = %v, want provider", apperrors.CodeOf(err))
	}
}

func TestSynthesizeMissingAPIKey(t *testing.T) {
	c := New("http://localhost:0", "")
	_, err := c.Synthesize(context.Background(), "hi", agent.SynthesisOptions{Language: "en-IN"})
	if !apperrors.IsCode(err, apperrors.CodeProvider) {
		t.Fatalf("code = %v, want provider", apperrors.CodeOf(err))
	}
}

func TestSupportedLanguage(t *testing.T) {
	c := New("", "k")
	for _, code := range []string{"en-IN", "hi-IN", "ta-IN", "od-IN"} {
		if !c.SupportedLanguage(code) {
			t.Errorf("%s should be supported", code)
		}
	}
	for _, code := range []string{"en", "fr-FR", ""} {
		if c.SupportedLanguage(code) {
			t.Errorf("%s should not be supported", code)
		}
	}
}
