// Package config handles agent configuration
package config

import (
	"os"
	"strconv"
	"time"
)

// Degraded-mode policies for an unreachable transcript source.
const (
	DegradedSynthetic = "synthetic" // substitute a synthetic transcript source
	DegradedHalt      = "halt"      // skip ticks until the source recovers
)

type Config struct {
	HTTPAddr string

	// Vexa bot provisioning / transcript source
	VexaBaseURL string
	VexaAPIKey  string
	Platform    string

	// Gemini text generation
	GeminiAPIKey string
	GeminiModel  string

	// Sarvam speech synthesis
	SarvamBaseURL string
	SarvamAPIKey  string
	TTSVoice      string

	// Session defaults
	BotName          string
	DefaultLanguage  string
	PollInterval     time.Duration
	ResponseCooldown time.Duration
	SilenceGapSec    float64 // gap between segments that invites a response
	RepeatWindow     int     // responded-to texts remembered by the repeat guard
	DegradedMode     string  // synthetic | halt

	// Audio cache
	CacheDriver string // memory | file | redis
	AudioDir    string
	RedisAddr   string
	RedisTTL    time.Duration
}

func Load() *Config {
	return &Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":3001"),
		VexaBaseURL:      getEnv("VEXA_BASE_URL", "https://gateway.dev.vexa.ai"),
		VexaAPIKey:       getEnv("VEXA_API_KEY", ""),
		Platform:         getEnv("MEETING_PLATFORM", "google_meet"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		SarvamBaseURL:    getEnv("SARVAM_BASE_URL", "https://api.sarvam.ai"),
		SarvamAPIKey:     getEnv("SARVAM_API_KEY", ""),
		TTSVoice:         getEnv("TTS_VOICE", "anushka"),
		BotName:          getEnv("AGENT_NAME", "AI Assistant"),
		DefaultLanguage:  getEnv("DEFAULT_LANGUAGE", "en-IN"),
		PollInterval:     getEnvDuration("POLL_INTERVAL", 2*time.Second),
		ResponseCooldown: getEnvDuration("RESPONSE_COOLDOWN", 3*time.Second),
		SilenceGapSec:    getEnvFloat("SILENCE_GAP_SECONDS", 5.0),
		RepeatWindow:     getEnvInt("REPEAT_GUARD_WINDOW", 5),
		DegradedMode:     getEnv("DEGRADED_TRANSCRIPTS", DegradedSynthetic),
		CacheDriver:      getEnv("CACHE_DRIVER", "file"),
		AudioDir:         getEnv("AUDIO_DIR", "agent-responses"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisTTL:         getEnvDuration("REDIS_TTL", 24*time.Hour),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
