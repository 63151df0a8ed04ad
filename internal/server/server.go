// Package server provides the HTTP and WebSocket boundary over the
// orchestration engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/rajdesai17/agent-pa/internal/agent"
	"github.com/rajdesai17/agent-pa/internal/audiocache"
	"github.com/rajdesai17/agent-pa/internal/config"
	apperrors "github.com/rajdesai17/agent-pa/internal/errors"
	"github.com/rajdesai17/agent-pa/internal/trace"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	core  *agent.Core
	cache audiocache.Store
	cfg   *config.Config

	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

// New creates the boundary server and starts the event broadcaster.
func New(core *agent.Core, cache audiocache.Store, cfg *config.Config) *Server {
	s := &Server{
		core:  core,
		cache: cache,
		cfg:   cfg,
		conns: make(map[*websocket.Conn]struct{}),
	}
	go s.broadcastEvents()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("POST /api/agent/start", s.handleStart)
	mux.HandleFunc("POST /api/agent/stop", s.handleStop)
	mux.HandleFunc("GET /api/agent/status/{meetingId}", s.handleStatus)
	mux.HandleFunc("GET /api/agent/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/agent/transcript/{meetingId}", s.handleTranscript)
	mux.HandleFunc("GET /api/agent/responses/{meetingId}", s.handleResponses)
	mux.HandleFunc("POST /api/agent/cleanup", s.handleCleanup)

	mux.HandleFunc("GET /api/cache/stats", s.handleCacheStats)
	mux.HandleFunc("POST /api/cache/evict", s.handleCacheEvict)

	mux.HandleFunc("GET /health", s.handleHealth)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the structured error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := apperrors.CodeUnknown

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus()
		code = appErr.Code
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  string(code),
	})
}

type startRequest struct {
	MeetingID string `json:"meetingId"`
	Context   string `json:"context"`
	Language  string `json:"language"`
	BotName   string `json:"botName"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.CodeValidation, "invalid request body"))
		return
	}

	res, err := s.core.Start(r.Context(), strings.TrimSpace(req.MeetingID), req.Context, agent.Options{
		Language: req.Language,
		BotName:  req.BotName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type stopRequest struct {
	MeetingID string `json:"meetingId"`
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.CodeValidation, "invalid request body"))
		return
	}

	res, err := s.core.Stop(r.Context(), strings.TrimSpace(req.MeetingID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.Status(r.PathValue("meetingId")))
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.core.Sessions()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	entries, err := s.core.Transcript(r.PathValue("meetingId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(entries),
		"segments": entries,
	})
}

func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request) {
	records, err := s.core.SessionResponses(r.PathValue("meetingId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(records),
		"responses": records,
	})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	results := s.core.CleanupAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"cleaned": len(results),
		"results": results,
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cache.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCacheEvict(w http.ResponseWriter, r *http.Request) {
	evicted, err := s.cache.EvictInvalid(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"evicted": evicted})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"sessions":  s.core.SessionCount(),
		"services": map[string]bool{
			"gemini": s.cfg.GeminiAPIKey != "",
			"sarvam": s.cfg.SarvamAPIKey != "",
			"vexa":   s.cfg.VexaAPIKey != "",
		},
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	trace.Logger(ctx).Info("websocket connected", "remote", r.RemoteAddr)

	// Consumers only listen; the read loop exists to notice disconnects.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			trace.Logger(ctx).Debug("websocket closed", "error", err)
			return
		}
	}
}

func (s *Server) broadcastEvents() {
	for evt := range s.core.Events() {
		s.mu.RLock()
		for conn := range s.conns {
			go func(c *websocket.Conn, e agent.Event) {
				_ = wsjson.Write(context.Background(), c, e)
			}(conn, evt)
		}
		s.mu.RUnlock()
	}
}
