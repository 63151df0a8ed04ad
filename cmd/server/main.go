// Meeting agent server - provisions meeting bots, polls transcripts, and
// serves the HTTP/WebSocket API.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rajdesai17/agent-pa/internal/agent"
	"github.com/rajdesai17/agent-pa/internal/audiocache"
	"github.com/rajdesai17/agent-pa/internal/config"
	"github.com/rajdesai17/agent-pa/internal/providers/gemini"
	"github.com/rajdesai17/agent-pa/internal/providers/sarvam"
	"github.com/rajdesai17/agent-pa/internal/providers/synthetic"
	"github.com/rajdesai17/agent-pa/internal/providers/vexa"
	"github.com/rajdesai17/agent-pa/internal/server"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := openCache(cfg)
	if err != nil {
		slog.Error("failed to open audio cache", "driver", cfg.CacheDriver, "error", err)
		os.Exit(1)
	}
	defer func() { _ = cache.Close() }()

	replies, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}

	gateway := vexa.New(cfg.VexaBaseURL, cfg.VexaAPIKey, cfg.Platform)

	deps := agent.Deps{
		Bots:        gateway,
		Transcripts: gateway,
		Replies:     replies,
		Synth:       sarvam.New(cfg.SarvamBaseURL, cfg.SarvamAPIKey),
		Cache:       cache,
	}
	if cfg.DegradedMode == config.DegradedSynthetic {
		deps.Fallback = synthetic.New()
	}

	core := agent.New(cfg, deps)
	srv := server.New(core, cache, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("agent server starting", "http", cfg.HTTPAddr, "platform", cfg.Platform, "cache", cfg.CacheDriver)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	// Stop every live session so bots leave their meetings.
	for _, res := range core.CleanupAll(shutdownCtx) {
		if res.Error != "" {
			slog.Warn("session cleanup failed", "meeting_id", res.MeetingID, "error", res.Error)
		}
	}
	slog.Info("shutdown complete")
}

func openCache(cfg *config.Config) (audiocache.Store, error) {
	switch audiocache.DriverType(cfg.CacheDriver) {
	case audiocache.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return audiocache.NewStore(audiocache.DriverRedis,
			audiocache.WithRedisClient(client),
			audiocache.WithRedisTTL(cfg.RedisTTL))
	case audiocache.DriverFile:
		return audiocache.NewStore(audiocache.DriverFile,
			audiocache.WithIndexPath(filepath.Join(cfg.AudioDir, "cache-index.json")))
	default:
		return audiocache.NewStore(audiocache.DriverMemory)
	}
}
