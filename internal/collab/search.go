package collab

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/tools/duckduckgo"

	"github.com/shaiso/Conveyor/internal/dispatch"
	"github.com/shaiso/Conveyor/internal/domain"
)

// defaultMaxResults — число результатов поиска по умолчанию.
const defaultMaxResults = 10

// searchClient абстрагирует поисковый бэкенд для тестов.
type searchClient interface {
	Call(ctx context.Context, query string) (string, error)
}

// SearchDispatcher выполняет шаги типа search через DuckDuckGo.
type SearchDispatcher struct {
	client searchClient
}

// NewSearchDispatcher создаёт dispatcher с DuckDuckGo-клиентом.
func NewSearchDispatcher() (*SearchDispatcher, error) {
	ddg, err := duckduckgo.New(defaultMaxResults, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, fmt.Errorf("init duckduckgo client: %w", err)
	}
	return &SearchDispatcher{client: ddg}, nil
}

// Kind реализует dispatch.Dispatcher.
func (d *SearchDispatcher) Kind() domain.StepKind { return domain.KindSearch }

// Dispatch выполняет поиск по params["query"].
func (d *SearchDispatcher) Dispatch(ctx context.Context, params map[string]any) (any, error) {
	query, _ := params["query"].(string)
	if query == "" {
		// Секционные шаги ищут по теме и номеру раздела.
		topic, _ := params["topic"].(string)
		if topic == "" {
			return nil, dispatch.Validation("search", errors.New("missing query parameter"))
		}
		query = topic
		if section, ok := params["section"]; ok {
			query = fmt.Sprintf("%s раздел %v", topic, section)
		}
	}

	result, err := d.client.Call(ctx, query)
	if err != nil {
		// Поисковый бэкенд нестабилен: сетевые ошибки и rate limit
		// считаем временными.
		return nil, dispatch.Transient("search", err)
	}
	return map[string]any{
		"query":   query,
		"results": result,
	}, nil
}
