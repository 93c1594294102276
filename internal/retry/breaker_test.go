package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failingOp(_ context.Context) (any, error) {
	return nil, errors.New("boom")
}

func okOp(_ context.Context) (any, error) {
	return "ok", nil
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, RecoveryTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := b.Call(ctx, failingOp); err == nil {
			t.Fatal("Call() error = nil for failing op")
		}
	}
	if b.State() != BreakerOpen {
		t.Fatalf("State() = %q, want open", b.State())
	}

	if _, err := b.Call(ctx, okOp); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Call() in open state error = %v, want ErrCircuitOpen", err)
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond})
	ctx := context.Background()

	_, _ = b.Call(ctx, failingOp)
	if b.State() != BreakerOpen {
		t.Fatalf("State() = %q, want open", b.State())
	}

	time.Sleep(30 * time.Millisecond)

	// Пробный вызов после recovery timeout закрывает цепь.
	if _, err := b.Call(ctx, okOp); err != nil {
		t.Fatalf("trial Call() error = %v", err)
	}
	if b.State() != BreakerClosed {
		t.Errorf("State() = %q, want closed after recovery", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond})
	ctx := context.Background()

	_, _ = b.Call(ctx, failingOp)
	time.Sleep(30 * time.Millisecond)

	if _, err := b.Call(ctx, failingOp); err == nil {
		t.Fatal("trial Call() error = nil")
	}
	if b.State() != BreakerOpen {
		t.Errorf("State() = %q, want open after failed trial", b.State())
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Hour})
	ctx := context.Background()

	_, _ = b.Call(ctx, failingOp)
	_, _ = b.Call(ctx, okOp)
	_, _ = b.Call(ctx, failingOp)

	// Одна ошибка после сброса — цепь остаётся закрытой.
	if b.State() != BreakerClosed {
		t.Errorf("State() = %q, want closed", b.State())
	}
}

func TestExecutorWithBreaker(t *testing.T) {
	cfg := fastConfig()
	cfg.Breaker = NewBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	cfg.RetryIf = func(error) bool { return true }
	e := New(cfg)

	calls := 0
	_, err := e.Do(context.Background(), "op", 3, func(_ context.Context) (any, error) {
		calls++
		return nil, errors.New("down")
	})
	if err == nil {
		t.Fatal("Do() error = nil")
	}
	// Первая ошибка открывает цепь, дальнейшие попытки блокируются.
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Do() error = %v, want ErrCircuitOpen", err)
	}
}
