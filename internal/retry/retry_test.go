package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Conveyor/internal/dispatch"
)

func fastConfig() Config {
	return Config{
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	e := New(fastConfig())

	failures := 2
	out, err := e.Do(context.Background(), "op", 3, func(_ context.Context) (any, error) {
		if failures > 0 {
			failures--
			return nil, dispatch.Transient("op", errors.New("flaky"))
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if out != 42 {
		t.Errorf("Do() = %v, want 42", out)
	}

	st := e.StatsFor("op")
	if st.TotalCalls != 1 || st.TotalRetries != 2 || st.SuccessCount != 1 {
		t.Errorf("StatsFor() = %+v", st)
	}
}

func TestDoReturnsLastErrorUnchanged(t *testing.T) {
	e := New(fastConfig())

	base := errors.New("connection reset")
	wrapped := dispatch.Transient("op", base)

	_, err := e.Do(context.Background(), "op", 2, func(_ context.Context) (any, error) {
		return nil, wrapped
	})
	if !errors.Is(err, base) {
		t.Errorf("Do() error = %v, want original error preserved", err)
	}

	st := e.StatsFor("op")
	if st.TotalRetries != 2 || st.FailureCount != 1 {
		t.Errorf("StatsFor() = %+v", st)
	}
}

func TestDoDoesNotRetryValidation(t *testing.T) {
	e := New(fastConfig())

	calls := 0
	_, err := e.Do(context.Background(), "op", 5, func(_ context.Context) (any, error) {
		calls++
		return nil, dispatch.Validation("op", errors.New("bad input"))
	})
	if err == nil {
		t.Fatal("Do() error = nil")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoNegativeBudgetUsesConfig(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = 2
	e := New(cfg)

	calls := 0
	_, _ = e.Do(context.Background(), "op", -1, func(_ context.Context) (any, error) {
		calls++
		return nil, dispatch.Transient("op", errors.New("x"))
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (1 + 2 retries from config)", calls)
	}
}

func TestDoRetryOnResult(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryOnResult = func(result any) bool {
		s, _ := result.(string)
		return s == ""
	}
	e := New(cfg)

	out, err := e.Do(context.Background(), "op", 2, func(_ context.Context) (any, error) {
		return "", nil
	})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("Do() error = %v, want ErrRetryExhausted", err)
	}
	if out != "" {
		t.Errorf("Do() = %v, want last empty result", out)
	}
}

func TestDoCancelledContext(t *testing.T) {
	cfg := fastConfig()
	cfg.BaseDelay = time.Minute // задержка должна прерваться отменой
	e := New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := e.Do(ctx, "op", 2, func(_ context.Context) (any, error) {
		return nil, dispatch.Transient("op", errors.New("x"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Do() took %v, cancel did not interrupt delay", elapsed)
	}
}

func TestBackoffStrategies(t *testing.T) {
	base := time.Second

	if got := Backoff(3, base, StrategyFixedDelay, 2, false, time.Minute); got != base {
		t.Errorf("fixed: Backoff() = %v, want %v", got, base)
	}
	if got := Backoff(2, base, StrategyExponentialBackoff, 2, false, time.Minute); got != 4*time.Second {
		t.Errorf("exponential: Backoff() = %v, want 4s", got)
	}
	if got := Backoff(2, base, StrategyLinearBackoff, 2, false, time.Minute); got != 3*time.Second {
		t.Errorf("linear: Backoff() = %v, want 3s", got)
	}

	got := Backoff(0, base, StrategyRandomJitter, 2, false, time.Minute)
	if got < base || got > 2*base {
		t.Errorf("random: Backoff() = %v, want in [1s, 2s]", got)
	}
}

func TestBackoffCappedByMaxDelay(t *testing.T) {
	got := Backoff(20, time.Second, StrategyExponentialBackoff, 2, false, 10*time.Second)
	if got != 10*time.Second {
		t.Errorf("Backoff() = %v, want cap 10s", got)
	}
}

func TestBackoffJitterRange(t *testing.T) {
	base := time.Second
	for i := 0; i < 50; i++ {
		got := Backoff(0, base, StrategyFixedDelay, 2, true, time.Minute)
		if got < 1100*time.Millisecond || got > 1300*time.Millisecond {
			t.Fatalf("Backoff() with jitter = %v, want in [1.1s, 1.3s]", got)
		}
	}
}

func TestStatsSuccessRate(t *testing.T) {
	st := Stats{TotalCalls: 4, SuccessCount: 3}
	if got := st.SuccessRate(); got != 0.75 {
		t.Errorf("SuccessRate() = %v, want 0.75", got)
	}
	if got := (Stats{}).SuccessRate(); got != 0 {
		t.Errorf("SuccessRate() = %v, want 0 for empty stats", got)
	}
}

func TestAllStatsAndReset(t *testing.T) {
	e := New(fastConfig())
	_, _ = e.Do(context.Background(), "a", 0, func(_ context.Context) (any, error) { return 1, nil })
	_, _ = e.Do(context.Background(), "b", 0, func(_ context.Context) (any, error) { return 1, nil })

	if all := e.AllStats(); len(all) != 2 {
		t.Errorf("AllStats() = %d entries, want 2", len(all))
	}

	e.ResetStats()
	if all := e.AllStats(); len(all) != 0 {
		t.Errorf("AllStats() after reset = %d entries, want 0", len(all))
	}
}
