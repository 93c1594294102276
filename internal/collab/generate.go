package collab

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/shaiso/Conveyor/internal/dispatch"
	"github.com/shaiso/Conveyor/internal/domain"
)

// systemPrompt — общая роль модели при генерации материалов отчёта.
const systemPrompt = "Ты — ассистент-исследователь. Пиши структурированный " +
	"текст по-русски, опираясь только на переданный контекст."

// GenerateDispatcher выполняет шаги типа model_generation через LLM.
type GenerateDispatcher struct {
	model llms.Model
}

// NewGenerateDispatcher создаёт dispatcher поверх готовой модели
// (openai-совместимый провайдер настраивается в main).
func NewGenerateDispatcher(model llms.Model) *GenerateDispatcher {
	return &GenerateDispatcher{model: model}
}

// Kind реализует dispatch.Dispatcher.
func (d *GenerateDispatcher) Kind() domain.StepKind { return domain.KindModelGeneration }

// Dispatch собирает промпт из параметров шага и вызывает модель.
//
// Поддерживаемые задачи (params["task"]): outline — план отчёта,
// section — текст раздела, report — финальный отчёт. Произвольный
// промпт передаётся через params["prompt"].
func (d *GenerateDispatcher) Dispatch(ctx context.Context, params map[string]any) (any, error) {
	prompt, err := buildPrompt(params)
	if err != nil {
		return nil, err
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	resp, err := d.model.GenerateContent(ctx, messages)
	if err != nil {
		return nil, dispatch.Transient("model_generation", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		// Пустой ответ — повод для повтора на уровне retry-политики.
		return nil, dispatch.Transient("model_generation", errors.New("model returned empty response"))
	}
	return resp.Choices[0].Content, nil
}

// buildPrompt строит промпт по типу задачи.
func buildPrompt(params map[string]any) (string, error) {
	if prompt, _ := params["prompt"].(string); prompt != "" {
		return prompt, nil
	}

	task, _ := params["task"].(string)
	topic, _ := params["topic"].(string)
	if topic == "" {
		return "", dispatch.Validation("model_generation", errors.New("missing topic parameter"))
	}

	switch task {
	case "outline":
		sections := params["sections"]
		return fmt.Sprintf("Составь план отчёта по теме %q из %v разделов. "+
			"Для каждого раздела — заголовок и два предложения о содержании.", topic, sections), nil
	case "section":
		return fmt.Sprintf("Напиши раздел %v отчёта по теме %q. "+
			"Контекст: %v", params["section"], topic, params["context"]), nil
	case "report":
		return fmt.Sprintf("Собери финальный отчёт по теме %q из подготовленных "+
			"разделов: %v", topic, params["context"]), nil
	default:
		return "", dispatch.Validation("model_generation", fmt.Errorf("unknown generation task %q", task))
	}
}
