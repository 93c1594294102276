package main

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/repo"
)

func TestFormatHistoryRecord(t *testing.T) {
	finished := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	rec := repo.SummaryRecord{
		PlanID:         uuid.New(),
		Topic:          "квантовые вычисления",
		Success:        false,
		CompletedCount: 7,
		FailedCount:    3,
		TotalDuration:  1500 * time.Millisecond,
		FinishedAt:     finished,
	}

	line := formatHistoryRecord(rec)

	for _, want := range []string{"2026-08-23T12:00:00Z", "FAILED", "7/10 steps", "1.5s", "квантовые вычисления"} {
		if !strings.Contains(line, want) {
			t.Errorf("formatHistoryRecord() = %q, missing %q", line, want)
		}
	}

	rec.Success = true
	if line := formatHistoryRecord(rec); !strings.Contains(line, "COMPLETED") {
		t.Errorf("formatHistoryRecord() = %q, want COMPLETED for successful run", line)
	}
}
