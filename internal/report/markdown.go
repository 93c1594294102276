package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Markdown собирает markdown-отчёт по выполненному плану.
//
// Отчёт состоит из шапки с итогами, результата финального шага
// (если он есть) и таблицы шагов.
func Markdown(p *domain.Plan, summary *domain.ExecutionSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.Topic)
	fmt.Fprintf(&b, "- План: `%s`\n", p.ID)
	fmt.Fprintf(&b, "- Стратегия: %s\n", p.Strategy)
	fmt.Fprintf(&b, "- Статус: %s\n", p.Status)
	fmt.Fprintf(&b, "- Шагов выполнено: %d, с ошибкой: %d\n", summary.CompletedCount, summary.FailedCount)
	fmt.Fprintf(&b, "- Длительность: %s\n", summary.TotalDuration.Round(time.Millisecond))
	fmt.Fprintf(&b, "- Завершён: %s\n\n", summary.FinishedAt.Format(time.RFC3339))

	if body := finalReportBody(p); body != "" {
		b.WriteString("## Отчёт\n\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	b.WriteString("## Шаги\n\n")
	b.WriteString("| Шаг | Тип | Статус | Попытки | Длительность |\n")
	b.WriteString("|-----|-----|--------|---------|--------------|\n")
	for _, step := range p.Steps {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n",
			step.ID, step.Kind, step.Status, step.RetryCount+1,
			step.Duration().Round(time.Millisecond))
	}

	if len(summary.Errors) > 0 {
		b.WriteString("\n## Ошибки\n\n")
		for _, e := range summary.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	return b.String()
}

// finalReportBody возвращает текст шага final_report, если план его
// содержит и шаг завершился строковым результатом.
func finalReportBody(p *domain.Plan) string {
	step := p.StepByID("final_report")
	if step == nil || step.Status != domain.StepStatusCompleted {
		return ""
	}
	if text, ok := step.Result.(string); ok {
		return text
	}
	return ""
}

// Export записывает markdown-отчёт в директорию dir и возвращает
// путь к файлу.
func Export(dir string, p *domain.Plan, summary *domain.ExecutionSummary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	name := fmt.Sprintf("report-%s.md", p.ID)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(Markdown(p, summary)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
