package domain

// StepStatus — статус выполнения шага.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED
//	          (или) → CANCELLED (из PENDING или RUNNING)
//
// Терминальные статусы финальны: шаг никогда не возвращается
// в PENDING, кроме явного пересоздания плана.
type StepStatus string

const (
	// StepStatusPending — шаг создан, ожидает выполнения.
	StepStatusPending StepStatus = "PENDING"

	// StepStatusRunning — шаг выполняется.
	StepStatusRunning StepStatus = "RUNNING"

	// StepStatusCompleted — шаг успешно завершён.
	StepStatusCompleted StepStatus = "COMPLETED"

	// StepStatusFailed — шаг завершился с ошибкой (после всех retry).
	StepStatusFailed StepStatus = "FAILED"

	// StepStatusCancelled — шаг отменён (например, по таймауту батча).
	StepStatusCancelled StepStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusCompleted, StepStatusFailed, StepStatusCancelled:
		return true
	default:
		return false
	}
}

// PlanStatus — статус выполнения плана.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED
type PlanStatus string

const (
	// PlanStatusPending — план создан, но ещё не запущен.
	PlanStatusPending PlanStatus = "PENDING"

	// PlanStatusRunning — план в процессе выполнения.
	PlanStatusRunning PlanStatus = "RUNNING"

	// PlanStatusCompleted — все шаги плана успешно завершены.
	PlanStatusCompleted PlanStatus = "COMPLETED"

	// PlanStatusFailed — план завершился с ошибками
	// (хотя бы один шаг FAILED или превышен порог отказов).
	PlanStatusFailed PlanStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s PlanStatus) IsTerminal() bool {
	switch s {
	case PlanStatusCompleted, PlanStatusFailed:
		return true
	default:
		return false
	}
}

// StepKind — тип шага: определяет, какой внешний исполнитель
// (Dispatcher) будет выполнять шаг.
type StepKind string

const (
	// KindSearch — поиск в интернете.
	KindSearch StepKind = "search"

	// KindModelGeneration — генерация текста языковой моделью.
	KindModelGeneration StepKind = "model_generation"

	// KindCodeExecution — выполнение кода в песочнице.
	KindCodeExecution StepKind = "code_execution"

	// KindBrowserAutomation — автоматизация браузера.
	KindBrowserAutomation StepKind = "browser_automation"

	// KindFileOperation — операции с файлами.
	KindFileOperation StepKind = "file_operation"

	// KindDataAnalysis — анализ собранных данных.
	KindDataAnalysis StepKind = "data_analysis"
)

// Valid возвращает true для известного типа шага.
func (k StepKind) Valid() bool {
	switch k {
	case KindSearch, KindModelGeneration, KindCodeExecution,
		KindBrowserAutomation, KindFileOperation, KindDataAnalysis:
		return true
	default:
		return false
	}
}

// Strategy — стратегия выполнения плана.
type Strategy string

const (
	// StrategySequential — шаги выполняются по одному,
	// в порядке приоритета.
	StrategySequential Strategy = "sequential"

	// StrategyParallel — готовые шаги выполняются батчами
	// с ограничением параллелизма.
	StrategyParallel Strategy = "parallel"

	// StrategyAdaptive — высокоприоритетные шаги (priority <= 2)
	// последовательно, остальные — параллельно.
	StrategyAdaptive Strategy = "adaptive"
)

// Valid возвращает true для известной стратегии.
func (s Strategy) Valid() bool {
	switch s {
	case StrategySequential, StrategyParallel, StrategyAdaptive:
		return true
	default:
		return false
	}
}
