package plan

import "errors"

// Ошибки построения и валидации плана.
var (
	// ErrEmptyPlan — план не содержит ни одного шага.
	ErrEmptyPlan = errors.New("plan has no steps")

	// ErrEmptyStepID — шаг с пустым идентификатором.
	ErrEmptyStepID = errors.New("step id is empty")

	// ErrDuplicateStepID — два шага с одинаковым идентификатором.
	ErrDuplicateStepID = errors.New("duplicate step id")

	// ErrUnknownDependency — зависимость на несуществующий шаг.
	ErrUnknownDependency = errors.New("dependency references unknown step")

	// ErrSelfDependency — шаг зависит сам от себя.
	ErrSelfDependency = errors.New("step depends on itself")

	// ErrCyclicDependency — в графе зависимостей есть цикл.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrInvalidStepKind — неизвестный тип шага.
	ErrInvalidStepKind = errors.New("invalid step kind")

	// ErrInvalidStrategy — неизвестная стратегия выполнения.
	ErrInvalidStrategy = errors.New("invalid execution strategy")
)
