package dispatch

import (
	"context"
	"fmt"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Dispatcher — интерфейс внешнего исполнителя для одного типа шага.
//
// Реализации: поисковый клиент, LLM-клиент, песочница кода,
// браузерный драйвер, файловый доступ, анализатор данных.
// Движок не знает ничего о внутренностях реализаций.
//
// params — непрозрачный payload шага (Step.Parameters).
// Ошибки возвращаются с классом (см. OpError): от класса зависит,
// будет ли StepExecutor повторять вызов.
type Dispatcher interface {
	// Kind возвращает тип шага, который обслуживает dispatcher.
	Kind() domain.StepKind

	// Dispatch выполняет операцию и возвращает данные результата.
	Dispatch(ctx context.Context, params map[string]any) (any, error)
}

// Registry — реестр dispatcher'ов по типу шага.
//
// Заполняется один раз при старте процесса; после этого только
// читается, поэтому синхронизация не нужна.
type Registry struct {
	dispatchers map[domain.StepKind]Dispatcher
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{dispatchers: make(map[domain.StepKind]Dispatcher)}
}

// Register добавляет dispatcher для его типа шага.
// Повторная регистрация того же типа замещает предыдущий dispatcher.
func (r *Registry) Register(d Dispatcher) error {
	if d == nil {
		return ErrNilDispatcher
	}
	r.dispatchers[d.Kind()] = d
	return nil
}

// Get возвращает dispatcher для типа шага.
func (r *Registry) Get(kind domain.StepKind) (Dispatcher, error) {
	d, ok := r.dispatchers[kind]
	if !ok {
		return nil, Validation("registry", fmt.Errorf("%w: %s", ErrUnknownKind, kind))
	}
	return d, nil
}

// Kinds возвращает список зарегистрированных типов шагов.
func (r *Registry) Kinds() []domain.StepKind {
	kinds := make([]domain.StepKind, 0, len(r.dispatchers))
	for k := range r.dispatchers {
		kinds = append(kinds, k)
	}
	return kinds
}
