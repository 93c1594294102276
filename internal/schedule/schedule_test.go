package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSpecNextDueCron(t *testing.T) {
	spec := Spec{CronExpr: "0 12 * * *"} // каждый день в 12:00 UTC
	from := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	next, err := spec.NextDue(from)
	if err != nil {
		t.Fatalf("NextDue() error = %v", err)
	}
	want := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextDue() = %v, want %v", next, want)
	}
}

func TestSpecNextDueInterval(t *testing.T) {
	spec := Spec{Interval: 90 * time.Second}
	from := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	next, err := spec.NextDue(from)
	if err != nil {
		t.Fatalf("NextDue() error = %v", err)
	}
	if got := next.Sub(from); got != 90*time.Second {
		t.Errorf("NextDue() offset = %v, want 90s", got)
	}
}

func TestSpecValidate(t *testing.T) {
	if err := (Spec{}).Validate(); !errors.Is(err, ErrEmptySchedule) {
		t.Errorf("Validate() = %v, want ErrEmptySchedule", err)
	}
	if err := (Spec{CronExpr: "not a cron"}).Validate(); err == nil {
		t.Error("Validate() = nil for invalid cron expression")
	}
	if err := (Spec{CronExpr: "*/5 * * * *"}).Validate(); err != nil {
		t.Errorf("Validate() error = %v for valid cron", err)
	}
}

func TestRunnerFiresDueJob(t *testing.T) {
	r := NewRunner(nil)

	var fired atomic.Int32
	err := r.Add("test", Spec{Interval: 10 * time.Millisecond}, func(_ context.Context) {
		fired.Add(1)
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	go r.Start(ctx)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if fired.Load() >= 1 {
			r.Stop()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("scheduled job did not fire")
}

func TestRunnerRejectsEmptySpec(t *testing.T) {
	r := NewRunner(nil)
	if err := r.Add("bad", Spec{}, func(_ context.Context) {}); !errors.Is(err, ErrEmptySchedule) {
		t.Errorf("Add() error = %v, want ErrEmptySchedule", err)
	}
}
