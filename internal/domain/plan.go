package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan — план выполнения: коллекция шагов плюс стратегия.
//
// После построения структура плана неизменяема: Scheduler мутирует
// только состояние шагов (статус, результат, таймстемпы) и Status
// самого плана. Отношение зависимостей между шагами должно быть
// ацикличным; цикл, обнаруженный во время выполнения (ready set пуст,
// но остались PENDING шаги), разрешается принудительным выбором шага
// с наименьшим значением priority — это явное, логируемое решение,
// а не молчаливый отказ.
type Plan struct {
	// ID — уникальный идентификатор плана.
	ID uuid.UUID `json:"id"`

	// Topic — тема исследования (человекочитаемое имя плана).
	Topic string `json:"topic"`

	// Steps — шаги плана в порядке добавления.
	// Порядок добавления служит tie-break'ом при равных приоритетах.
	Steps []*Step `json:"steps"`

	// Strategy — стратегия выполнения.
	Strategy Strategy `json:"strategy"`

	// EstimatedTotalDuration — сумма оценок шагов. Только для отчётности.
	EstimatedTotalDuration time.Duration `json:"estimated_total_duration"`

	// Status — статус выполнения плана.
	Status PlanStatus `json:"status"`

	// CreatedAt — время создания плана.
	CreatedAt time.Time `json:"created_at"`
}

// StepByID возвращает шаг по ID или nil.
func (p *Plan) StepByID(id string) *Step {
	for _, s := range p.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// MarkRunning переводит план в статус RUNNING.
func (p *Plan) MarkRunning() {
	p.Status = PlanStatusRunning
}

// MarkCompleted переводит план в статус COMPLETED.
func (p *Plan) MarkCompleted() {
	p.Status = PlanStatusCompleted
}

// MarkFailed переводит план в статус FAILED.
func (p *Plan) MarkFailed() {
	p.Status = PlanStatusFailed
}
