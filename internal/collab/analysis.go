package collab

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shaiso/Conveyor/internal/dispatch"
	"github.com/shaiso/Conveyor/internal/domain"
)

// AnalysisDispatcher выполняет шаги типа data_analysis: агрегирует
// собранные на предыдущих шагах материалы в сводку.
type AnalysisDispatcher struct{}

// NewAnalysisDispatcher создаёт dispatcher.
func NewAnalysisDispatcher() *AnalysisDispatcher {
	return &AnalysisDispatcher{}
}

// Kind реализует dispatch.Dispatcher.
func (d *AnalysisDispatcher) Kind() domain.StepKind { return domain.KindDataAnalysis }

// Dispatch анализирует params["items"] — список текстовых фрагментов.
// Возвращает сводные показатели и объединённый дайджест.
func (d *AnalysisDispatcher) Dispatch(_ context.Context, params map[string]any) (any, error) {
	raw, ok := params["items"]
	if !ok {
		return nil, dispatch.Validation("data_analysis", errors.New("missing items parameter"))
	}

	items, err := toStrings(raw)
	if err != nil {
		return nil, err
	}

	var digest strings.Builder
	totalWords := 0
	for i, item := range items {
		totalWords += len(strings.Fields(item))
		fmt.Fprintf(&digest, "— Фрагмент %d: %s\n", i+1, truncate(item, 200))
	}

	return map[string]any{
		"items":       len(items),
		"total_words": totalWords,
		"digest":      digest.String(),
	}, nil
}

func toStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				s = fmt.Sprint(item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, dispatch.Validation("data_analysis", fmt.Errorf("items must be a list, got %T", raw))
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
