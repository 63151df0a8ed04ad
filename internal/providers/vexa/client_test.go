package vexa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rajdesai17/agent-pa/internal/agent"
	apperrors "github.com/rajdesai17/agent-pa/internal/errors"
)

func TestRequestBot(t *testing.T) {
	var gotAuth, gotBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/bots" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth.Store(r.Header.Get("X-API-Key"))
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotBody.Store(body)
		json.NewEncoder(w).Encode(map[string]any{"id": 42})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", "google_meet")
	info, err := c.RequestBot(context.Background(), "abc-123", agent.BotOptions{BotName: "AI Assistant"})
	if err != nil {
		t.Fatalf("RequestBot: %v", err)
	}
	if info.ID != "42" {
		t.Errorf("bot ID = %q, want 42", info.ID)
	}
	if info.Reused {
		t.Error("fresh bot reported as reused")
	}
	if gotAuth.Load() != "secret" {
		t.Errorf("X-API-Key = %v", gotAuth.Load())
	}
	body := gotBody.Load().(map[string]string)
	if body["platform"] != "google_meet" || body["native_meeting_id"] != "abc-123" || body["bot_name"] != "AI Assistant" {
		t.Errorf("request body = %v", body)
	}
}

func TestRequestBotConflictReusesExisting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/bots":
			w.WriteHeader(http.StatusConflict)
		case r.Method == http.MethodGet && r.URL.Path == "/bots/google_meet/abc-123":
			json.NewEncoder(w).Encode(map[string]any{"id": "bot-7"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "google_meet")
	info, err := c.RequestBot(context.Background(), "abc-123", agent.BotOptions{})
	if err != nil {
		t.Fatalf("RequestBot: %v", err)
	}
	if !info.Reused {
		t.Error("expected reused bot")
	}
	if info.ID != "bot-7" {
		t.Errorf("bot ID = %q, want bot-7", info.ID)
	}
}

func TestRequestBotConflictWithoutExistingBot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "google_meet")
	_, err := c.RequestBot(context.Background(), "abc-123", agent.BotOptions{})
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("error code = %v, want conflict", apperrors.CodeOf(err))
	}
}

func TestRequestBotRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 1})
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "google_meet")
	info, err := c.RequestBot(context.Background(), "m", agent.BotOptions{})
	if err != nil {
		t.Fatalf("RequestBot: %v", err)
	}
	if info.ID != "1" {
		t.Errorf("bot ID = %q", info.ID)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestGetTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcripts/google_meet/abc-123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"segments": []map[string]any{
				{"speaker": "Alice", "text": "Hello", "start": 0.0, "end": 1.5},
				{"speaker": "Bob", "text": "Hi there", "start": 2.0, "end": 3.0},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "google_meet")
	segs, err := c.GetTranscript(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	if segs[0].Speaker != "Alice" || segs[0].Text != "Hello" || segs[1].End != 3.0 {
		t.Errorf("unexpected segments: %+v", segs)
	}
}

func TestUpdateBotConfigAndStop(t *testing.T) {
	var sawConfig, sawStop atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/bots/google_meet/m1/config":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["language"] != "hi" {
				t.Errorf("language = %q", body["language"])
			}
			sawConfig.Store(true)
		case r.Method == http.MethodDelete && r.URL.Path == "/bots/google_meet/m1":
			sawStop.Store(true)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "google_meet")
	if err := c.UpdateBotConfig(context.Background(), "m1", agent.BotConfig{Language: "hi"}); err != nil {
		t.Fatalf("UpdateBotConfig: %v", err)
	}
	if err := c.StopBot(context.Background(), "m1"); err != nil {
		t.Fatalf("StopBot: %v", err)
	}
	if !sawConfig.Load() || !sawStop.Load() {
		t.Error("expected both config and stop requests")
	}
}

func TestErrorCodeMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "google_meet")
	_, err := c.GetTranscript(context.Background(), "missing")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("error code = %v, want not_found", apperrors.CodeOf(err))
	}
}
