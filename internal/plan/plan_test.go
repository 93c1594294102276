package plan

import (
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
)

func step(id string, deps ...string) *domain.Step {
	return &domain.Step{
		ID:           id,
		Kind:         domain.KindSearch,
		Dependencies: deps,
	}
}

func TestBuilderBuildsValidPlan(t *testing.T) {
	p, err := NewBuilder("test topic").
		WithStrategy(domain.StrategyParallel).
		AddStep(&domain.Step{ID: "a", Kind: domain.KindSearch, EstimatedDuration: 30 * time.Second}).
		AddStep(&domain.Step{ID: "b", Kind: domain.KindModelGeneration, Dependencies: []string{"a"}, EstimatedDuration: 45 * time.Second}).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if p.Topic != "test topic" {
		t.Errorf("Topic = %q", p.Topic)
	}
	if p.Strategy != domain.StrategyParallel {
		t.Errorf("Strategy = %q", p.Strategy)
	}
	if p.Status != domain.PlanStatusPending {
		t.Errorf("Status = %q, want PENDING", p.Status)
	}
	if p.EstimatedTotalDuration != 75*time.Second {
		t.Errorf("EstimatedTotalDuration = %v, want 75s", p.EstimatedTotalDuration)
	}
	if p.Steps[0].MaxRetries != defaultMaxRetries {
		t.Errorf("MaxRetries = %d, want default %d", p.Steps[0].MaxRetries, defaultMaxRetries)
	}
}

func TestBuilderSetDependencies(t *testing.T) {
	p, err := NewBuilder("t").
		AddStep(step("a")).
		AddStep(step("b")).
		SetDependencies("b", "a").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !p.StepByID("b").DependsOn("a") {
		t.Error("SetDependencies did not attach dependency")
	}
}

func TestBuilderRejectsEmptyPlan(t *testing.T) {
	if _, err := NewBuilder("t").Build(); !errors.Is(err, ErrEmptyPlan) {
		t.Errorf("Build() error = %v, want ErrEmptyPlan", err)
	}
}

func TestValidateRejectsDuplicateID(t *testing.T) {
	err := Validate([]*domain.Step{step("a"), step("a")})
	if !errors.Is(err, ErrDuplicateStepID) {
		t.Errorf("Validate() error = %v, want ErrDuplicateStepID", err)
	}
}

func TestValidateRejectsEmptyID(t *testing.T) {
	err := Validate([]*domain.Step{step("")})
	if !errors.Is(err, ErrEmptyStepID) {
		t.Errorf("Validate() error = %v, want ErrEmptyStepID", err)
	}
}

func TestValidateRejectsUnknownDependency(t *testing.T) {
	err := Validate([]*domain.Step{step("a", "ghost")})
	if !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("Validate() error = %v, want ErrUnknownDependency", err)
	}
}

func TestValidateRejectsSelfDependency(t *testing.T) {
	err := Validate([]*domain.Step{step("a", "a")})
	if !errors.Is(err, ErrSelfDependency) {
		t.Errorf("Validate() error = %v, want ErrSelfDependency", err)
	}
}

func TestValidateRejectsCycle(t *testing.T) {
	err := Validate([]*domain.Step{
		step("a", "c"),
		step("b", "a"),
		step("c", "b"),
	})
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("Validate() error = %v, want ErrCyclicDependency", err)
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	err := Validate([]*domain.Step{{ID: "a", Kind: "teleport"}})
	if !errors.Is(err, ErrInvalidStepKind) {
		t.Errorf("Validate() error = %v, want ErrInvalidStepKind", err)
	}
}

func TestValidateAcceptsDiamond(t *testing.T) {
	err := Validate([]*domain.Step{
		step("a"),
		step("b", "a"),
		step("c", "a"),
		step("d", "b", "c"),
	})
	if err != nil {
		t.Errorf("Validate() error = %v for acyclic diamond", err)
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
topic: "Квантовые вычисления"
strategy: parallel
steps:
  - id: search
    kind: search
    priority: 1
    estimated_duration: 30s
    parameters:
      query: "квантовые вычисления"
  - id: summary
    kind: model_generation
    priority: 2
    estimated_duration: 45s
    dependencies: [search]
`)
	p, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(p.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2", len(p.Steps))
	}
	if p.Strategy != domain.StrategyParallel {
		t.Errorf("Strategy = %q", p.Strategy)
	}
	if p.Steps[0].EstimatedDuration != 30*time.Second {
		t.Errorf("EstimatedDuration = %v, want 30s", p.Steps[0].EstimatedDuration)
	}
	if !p.Steps[1].DependsOn("search") {
		t.Error("dependency not parsed")
	}
}

func TestParseYAMLBadDuration(t *testing.T) {
	data := []byte(`
topic: t
steps:
  - id: a
    kind: search
    estimated_duration: "thirty seconds"
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("Parse() error = nil, want duration error")
	}
}

func TestNewResearchPlan(t *testing.T) {
	p, err := NewResearchPlan("История криптографии", 2)
	if err != nil {
		t.Fatalf("NewResearchPlan() error = %v", err)
	}

	// 1 поиск + 1 план + 2×(поиск+генерация) + анализ + отчёт = 8.
	if len(p.Steps) != 8 {
		t.Fatalf("len(Steps) = %d, want 8", len(p.Steps))
	}
	if p.Strategy != domain.StrategyAdaptive {
		t.Errorf("Strategy = %q, want adaptive", p.Strategy)
	}

	outline := p.StepByID("create_outline")
	if outline == nil || !outline.DependsOn("search_initial") {
		t.Error("create_outline must depend on search_initial")
	}

	report := p.StepByID("final_report")
	if report == nil || !report.DependsOn("analyze_results") {
		t.Error("final_report must depend on analyze_results")
	}

	analysis := p.StepByID("analyze_results")
	for i := 1; i <= 2; i++ {
		if !analysis.DependsOn("generate_section_" + string(rune('0'+i))) {
			t.Errorf("analyze_results missing dependency on section %d", i)
		}
	}
}

func TestNewResearchPlanDefaultSections(t *testing.T) {
	p, err := NewResearchPlan("t", 0)
	if err != nil {
		t.Fatalf("NewResearchPlan() error = %v", err)
	}
	// 4 фиксированных шага + 3×2 секционных.
	if len(p.Steps) != 10 {
		t.Errorf("len(Steps) = %d, want 10", len(p.Steps))
	}
}
