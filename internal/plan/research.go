package plan

import (
	"fmt"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
)

// defaultSectionCount — число разделов отчёта по умолчанию.
const defaultSectionCount = 3

// NewResearchPlan строит типовой план исследовательского отчёта по
// теме topic: первичный поиск, план отчёта, поиск и генерация по
// разделам, сводный анализ и финальный отчёт.
//
// sections <= 0 означает значение по умолчанию (3).
func NewResearchPlan(topic string, sections int) (*domain.Plan, error) {
	if sections <= 0 {
		sections = defaultSectionCount
	}

	b := NewBuilder(topic).WithStrategy(domain.StrategyAdaptive)

	b.AddStep(&domain.Step{
		ID:          "search_initial",
		Kind:        domain.KindSearch,
		Description: fmt.Sprintf("Первичный поиск по теме %q", topic),
		Parameters: map[string]any{
			"query":       topic,
			"max_results": 10,
		},
		Priority:          1,
		EstimatedDuration: 30 * time.Second,
	})

	b.AddStep(&domain.Step{
		ID:          "create_outline",
		Kind:        domain.KindModelGeneration,
		Description: "Структура отчёта на основе первичного поиска",
		Parameters: map[string]any{
			"task":     "outline",
			"topic":    topic,
			"sections": sections,
		},
		Dependencies:      []string{"search_initial"},
		Priority:          2,
		EstimatedDuration: 45 * time.Second,
	})

	contentIDs := make([]string, 0, sections)
	for i := 1; i <= sections; i++ {
		searchID := fmt.Sprintf("search_section_%d", i)
		contentID := fmt.Sprintf("generate_section_%d", i)
		contentIDs = append(contentIDs, contentID)

		b.AddStep(&domain.Step{
			ID:          searchID,
			Kind:        domain.KindSearch,
			Description: fmt.Sprintf("Поиск материалов для раздела %d", i),
			Parameters: map[string]any{
				"topic":   topic,
				"section": i,
			},
			Dependencies:      []string{"create_outline"},
			Priority:          3,
			EstimatedDuration: 20 * time.Second,
		})

		b.AddStep(&domain.Step{
			ID:          contentID,
			Kind:        domain.KindModelGeneration,
			Description: fmt.Sprintf("Текст раздела %d", i),
			Parameters: map[string]any{
				"task":    "section",
				"topic":   topic,
				"section": i,
			},
			Dependencies:      []string{searchID},
			Priority:          4,
			EstimatedDuration: 60 * time.Second,
		})
	}

	b.AddStep(&domain.Step{
		ID:          "analyze_results",
		Kind:        domain.KindDataAnalysis,
		Description: "Сводный анализ собранных материалов",
		Parameters: map[string]any{
			"topic": topic,
		},
		Dependencies:      contentIDs,
		Priority:          5,
		EstimatedDuration: 40 * time.Second,
	})

	b.AddStep(&domain.Step{
		ID:          "final_report",
		Kind:        domain.KindModelGeneration,
		Description: "Финальный отчёт",
		Parameters: map[string]any{
			"task":  "report",
			"topic": topic,
		},
		Dependencies:      []string{"analyze_results"},
		Priority:          6,
		EstimatedDuration: 50 * time.Second,
	})

	return b.Build()
}
