package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionResult — результат выполнения одного шага.
//
// При Success=false поле Data всегда пустое: данные и ошибка
// взаимоисключимы.
type ExecutionResult struct {
	// StepID — идентификатор шага.
	StepID string `json:"step_id"`

	// Success — признак успешного выполнения.
	Success bool `json:"success"`

	// Data — выходные данные шага (только при Success=true).
	Data any `json:"data,omitempty"`

	// Error — текст ошибки (только при Success=false).
	Error string `json:"error,omitempty"`

	// ExecutionTime — фактическая длительность выполнения.
	ExecutionTime time.Duration `json:"execution_time"`
}

// ExecutionSummary — итог выполнения плана.
//
// Вызывающая сторона всегда получает полный summary, даже при
// частичном отказе: ошибки уровня плана — это данные summary,
// а не исключения движка.
type ExecutionSummary struct {
	// PlanID — идентификатор плана.
	PlanID uuid.UUID `json:"plan_id"`

	// Success — true, если ни один шаг не завершился ошибкой.
	Success bool `json:"success"`

	// CompletedCount — число успешно завершённых шагов.
	CompletedCount int `json:"completed_count"`

	// FailedCount — число шагов, завершившихся ошибкой.
	FailedCount int `json:"failed_count"`

	// TotalDuration — полная длительность выполнения плана.
	TotalDuration time.Duration `json:"total_duration"`

	// Results — результаты шагов (stepID → ExecutionResult).
	Results map[string]*ExecutionResult `json:"results,omitempty"`

	// Errors — агрегированные ошибки шагов и уровня плана.
	Errors []string `json:"errors,omitempty"`

	// FinishedAt — время завершения выполнения.
	FinishedAt time.Time `json:"finished_at"`
}

// PlanProgress — снимок состояния плана для запроса статуса.
type PlanProgress struct {
	// PlanID — идентификатор плана.
	PlanID uuid.UUID `json:"plan_id"`

	// Topic — тема плана.
	Topic string `json:"topic"`

	// Status — статус плана.
	Status PlanStatus `json:"status"`

	// TotalSteps — общее число шагов.
	TotalSteps int `json:"total_steps"`

	// CompletedSteps — число завершённых шагов.
	CompletedSteps int `json:"completed_steps"`

	// FailedSteps — число упавших шагов.
	FailedSteps int `json:"failed_steps"`

	// RunningSteps — число выполняющихся шагов.
	RunningSteps int `json:"running_steps"`

	// Progress — доля завершённых шагов (0.0–1.0).
	Progress float64 `json:"progress"`
}
