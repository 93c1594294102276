package plan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
)

// defaultMaxRetries — бюджет повторов шага, если не задан явно.
const defaultMaxRetries = 3

// Builder — конструктор плана: накапливает шаги, затем Build
// валидирует граф и возвращает готовый Plan.
//
// Builder не потокобезопасен; план строится в одной горутине.
type Builder struct {
	topic    string
	strategy domain.Strategy
	steps    []*domain.Step
}

// NewBuilder создаёт Builder для плана с темой topic.
func NewBuilder(topic string) *Builder {
	return &Builder{
		topic:    topic,
		strategy: domain.StrategyAdaptive,
	}
}

// WithStrategy задаёт стратегию выполнения (default: adaptive).
func (b *Builder) WithStrategy(strategy domain.Strategy) *Builder {
	b.strategy = strategy
	return b
}

// AddStep добавляет шаг. Порядок добавления сохраняется и служит
// tie-break'ом при равных приоритетах.
func (b *Builder) AddStep(step *domain.Step) *Builder {
	if step.MaxRetries == 0 {
		step.MaxRetries = defaultMaxRetries
	}
	if step.Status == "" {
		step.Status = domain.StepStatusPending
	}
	b.steps = append(b.steps, step)
	return b
}

// SetDependencies заменяет зависимости шага stepID.
// Неизвестный stepID обнаружится при Build.
func (b *Builder) SetDependencies(stepID string, deps ...string) *Builder {
	for _, s := range b.steps {
		if s.ID == stepID {
			s.Dependencies = append([]string(nil), deps...)
			break
		}
	}
	return b
}

// EstimateDuration возвращает сумму оценок всех добавленных шагов.
func (b *Builder) EstimateDuration() time.Duration {
	var total time.Duration
	for _, s := range b.steps {
		total += s.EstimatedDuration
	}
	return total
}

// Build валидирует накопленные шаги и возвращает план.
func (b *Builder) Build() (*domain.Plan, error) {
	if len(b.steps) == 0 {
		return nil, ErrEmptyPlan
	}
	if !b.strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, b.strategy)
	}
	if err := Validate(b.steps); err != nil {
		return nil, err
	}

	return &domain.Plan{
		ID:                     uuid.New(),
		Topic:                  b.topic,
		Steps:                  b.steps,
		Strategy:               b.strategy,
		EstimatedTotalDuration: b.EstimateDuration(),
		Status:                 domain.PlanStatusPending,
		CreatedAt:              time.Now(),
	}, nil
}
