package report

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
)

func testPlanWithSummary() (*domain.Plan, *domain.ExecutionSummary) {
	search := &domain.Step{ID: "search_initial", Kind: domain.KindSearch}
	search.MarkRunning()
	search.MarkCompleted("данные")

	final := &domain.Step{ID: "final_report", Kind: domain.KindModelGeneration}
	final.MarkRunning()
	final.MarkCompleted("Текст финального отчёта.")

	p := &domain.Plan{
		ID:       uuid.New(),
		Topic:    "История Go",
		Steps:    []*domain.Step{search, final},
		Strategy: domain.StrategyAdaptive,
		Status:   domain.PlanStatusCompleted,
	}
	s := &domain.ExecutionSummary{
		PlanID:         p.ID,
		Success:        true,
		CompletedCount: 2,
		TotalDuration:  3 * time.Second,
		FinishedAt:     time.Now(),
	}
	return p, s
}

func TestMarkdownContainsReportAndSteps(t *testing.T) {
	p, s := testPlanWithSummary()

	md := Markdown(p, s)
	for _, want := range []string{
		"# История Go",
		"Текст финального отчёта.",
		"| search_initial | search | COMPLETED |",
		"| final_report |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q", want)
		}
	}
}

func TestMarkdownListsErrors(t *testing.T) {
	p, s := testPlanWithSummary()
	s.Errors = []string{"step x: boom"}

	md := Markdown(p, s)
	if !strings.Contains(md, "## Ошибки") || !strings.Contains(md, "step x: boom") {
		t.Error("Markdown() missing errors section")
	}
}

func TestExportWritesFile(t *testing.T) {
	p, s := testPlanWithSummary()

	path, err := Export(t.TempDir(), p, s)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "# История Go") {
		t.Error("exported report missing title")
	}
}
