package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":3001" {
		t.Errorf("expected :3001, got %s", cfg.HTTPAddr)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("expected 2s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.ResponseCooldown != 3*time.Second {
		t.Errorf("expected 3s cooldown, got %s", cfg.ResponseCooldown)
	}
	if cfg.SilenceGapSec != 5.0 {
		t.Errorf("expected 5.0 gap, got %f", cfg.SilenceGapSec)
	}
	if cfg.RepeatWindow != 5 {
		t.Errorf("expected repeat window 5, got %d", cfg.RepeatWindow)
	}
	if cfg.DegradedMode != DegradedSynthetic {
		t.Errorf("expected synthetic degraded mode, got %s", cfg.DegradedMode)
	}
	if cfg.DefaultLanguage != "en-IN" {
		t.Errorf("expected en-IN, got %s", cfg.DefaultLanguage)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "50ms")
	t.Setenv("REPEAT_GUARD_WINDOW", "3")
	t.Setenv("SILENCE_GAP_SECONDS", "2.5")
	t.Setenv("DEGRADED_TRANSCRIPTS", DegradedHalt)

	cfg := Load()
	if cfg.PollInterval != 50*time.Millisecond {
		t.Errorf("expected 50ms, got %s", cfg.PollInterval)
	}
	if cfg.RepeatWindow != 3 {
		t.Errorf("expected 3, got %d", cfg.RepeatWindow)
	}
	if cfg.SilenceGapSec != 2.5 {
		t.Errorf("expected 2.5, got %f", cfg.SilenceGapSec)
	}
	if cfg.DegradedMode != DegradedHalt {
		t.Errorf("expected halt, got %s", cfg.DegradedMode)
	}
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	t.Setenv("REPEAT_GUARD_WINDOW", "many")

	cfg := Load()
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("expected default on bad duration, got %s", cfg.PollInterval)
	}
	if cfg.RepeatWindow != 5 {
		t.Errorf("expected default on bad int, got %d", cfg.RepeatWindow)
	}
}
