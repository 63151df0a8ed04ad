package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker("test", Config{Threshold: 3, ResetTimeout: time.Minute})

	failing := errors.New("boom")
	for i := 0; i < 3; i++ {
		_ = b.Execute(func() error { return failing })
	}

	if b.State() != Open {
		t.Fatalf("expected open, got %s", b.State())
	}
	if err := b.Execute(func() error { return nil }); err != ErrOpen {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker("test", Config{Threshold: 1, ResetTimeout: time.Millisecond, HalfOpenSuccesses: 2})

	_ = b.Execute(func() error { return errors.New("boom") })
	if b.State() != Open {
		t.Fatalf("expected open, got %s", b.State())
	}

	time.Sleep(5 * time.Millisecond)

	// Two successes in half-open close the breaker
	for i := 0; i < 2; i++ {
		if err := b.Execute(func() error { return nil }); err != nil {
			t.Fatalf("half-open call rejected: %v", err)
		}
	}
	if b.State() != Closed {
		t.Errorf("expected closed after recovery, got %s", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("test", Config{Threshold: 1, ResetTimeout: time.Millisecond})

	_ = b.Execute(func() error { return errors.New("boom") })
	time.Sleep(5 * time.Millisecond)

	_ = b.Execute(func() error { return errors.New("still broken") })
	if b.State() != Open {
		t.Errorf("expected reopen after half-open failure, got %s", b.State())
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", Config{Threshold: 2, ResetTimeout: time.Minute})

	_ = b.Execute(func() error { return errors.New("boom") })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return errors.New("boom") })

	if b.State() != Closed {
		t.Errorf("interleaved success should keep breaker closed, got %s", b.State())
	}
}

func TestExecuteWithResult(t *testing.T) {
	b := NewBreaker("test", DefaultConfig())

	v, err := ExecuteWithResult(b, func() (string, error) { return "audio", nil })
	if err != nil || v != "audio" {
		t.Errorf("expected audio, got %q err=%v", v, err)
	}

	hooked := false
	b.WithHook(func(from, to State) { hooked = true })
	for i := 0; i < DefaultThreshold; i++ {
		_, _ = ExecuteWithResult(b, func() (string, error) { return "", errors.New("boom") })
	}
	if !hooked {
		t.Error("state change hook should fire when breaker opens")
	}
}
