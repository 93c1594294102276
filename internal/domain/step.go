package domain

import "time"

// Step — отдельная единица работы внутри плана.
//
// Step создаётся Builder'ом при построении плана и мутируется
// только Scheduler'ом/StepExecutor'ом (статус, результат, таймстемпы).
// Шаги не удаляются до завершения плана.
type Step struct {
	// ID — уникальный идентификатор шага внутри плана.
	ID string `json:"id" yaml:"id"`

	// Kind — тип шага (search, model_generation, ...).
	Kind StepKind `json:"kind" yaml:"kind"`

	// Description — человекочитаемое описание шага.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Parameters — непрозрачный payload для внешнего исполнителя.
	// Движок не интерпретирует содержимое.
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// Dependencies — ID шагов, которые должны успешно завершиться
	// до запуска этого шага.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`

	// Priority — приоритет: меньше — важнее. Используется при выборе
	// из ready set и при разбиении на фазы в adaptive стратегии.
	Priority int `json:"priority" yaml:"priority"`

	// EstimatedDuration — оценка длительности. Только для отчётности,
	// на корректность выполнения не влияет.
	EstimatedDuration time.Duration `json:"estimated_duration,omitempty" yaml:"estimated_duration,omitempty"`

	// MaxRetries — бюджет повторных попыток.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryCount — израсходованные попытки.
	RetryCount int `json:"retry_count,omitempty" yaml:"-"`

	// Status — текущий статус шага.
	Status StepStatus `json:"status" yaml:"-"`

	// Result — данные успешного выполнения.
	// Взаимоисключим с Error по статусу.
	Result any `json:"result,omitempty" yaml:"-"`

	// Error — текст ошибки при неудаче.
	Error string `json:"error,omitempty" yaml:"-"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty" yaml:"-"`

	// EndedAt — время завершения.
	EndedAt *time.Time `json:"ended_at,omitempty" yaml:"-"`
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если шаг не завершён.
func (s *Step) Duration() time.Duration {
	if s.StartedAt == nil || s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(*s.StartedAt)
}

// IsFinished возвращает true, если шаг в терминальном статусе.
func (s *Step) IsFinished() bool {
	return s.Status.IsTerminal()
}

// MarkRunning переводит шаг в статус RUNNING.
func (s *Step) MarkRunning() {
	now := time.Now()
	s.Status = StepStatusRunning
	s.StartedAt = &now
}

// MarkCompleted переводит шаг в статус COMPLETED с результатом.
func (s *Step) MarkCompleted(result any) {
	now := time.Now()
	s.Status = StepStatusCompleted
	s.EndedAt = &now
	s.Result = result
	s.Error = ""
}

// MarkFailed переводит шаг в статус FAILED с ошибкой.
func (s *Step) MarkFailed(err string) {
	now := time.Now()
	s.Status = StepStatusFailed
	s.EndedAt = &now
	s.Error = err
	s.Result = nil
}

// MarkCancelled переводит шаг в статус CANCELLED.
func (s *Step) MarkCancelled(reason string) {
	now := time.Now()
	s.Status = StepStatusCancelled
	s.EndedAt = &now
	s.Error = reason
	s.Result = nil
}

// DependsOn проверяет, зависит ли шаг от stepID.
func (s *Step) DependsOn(stepID string) bool {
	for _, dep := range s.Dependencies {
		if dep == stepID {
			return true
		}
	}
	return false
}
