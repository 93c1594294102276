package plan

import (
	"fmt"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Validate проверяет корректность набора шагов: непустые уникальные
// ID, известные типы, зависимости на существующие шаги, отсутствие
// самозависимостей и циклов.
func Validate(steps []*domain.Step) error {
	if len(steps) == 0 {
		return ErrEmptyPlan
	}

	byID := make(map[string]*domain.Step, len(steps))
	for _, s := range steps {
		if s.ID == "" {
			return ErrEmptyStepID
		}
		if _, ok := byID[s.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateStepID, s.ID)
		}
		if !s.Kind.Valid() {
			return fmt.Errorf("%w: step %q has kind %q", ErrInvalidStepKind, s.ID, s.Kind)
		}
		byID[s.ID] = s
	}

	for _, s := range steps {
		for _, dep := range s.Dependencies {
			if dep == s.ID {
				return fmt.Errorf("%w: %q", ErrSelfDependency, s.ID)
			}
			if _, ok := byID[dep]; !ok {
				return fmt.Errorf("%w: step %q depends on %q", ErrUnknownDependency, s.ID, dep)
			}
		}
	}

	return detectCycle(steps)
}

// detectCycle ищет цикл алгоритмом Кана: если топологическая
// сортировка не покрывает все шаги, остаток образует цикл.
func detectCycle(steps []*domain.Step) error {
	indegree := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))
	for _, s := range steps {
		indegree[s.ID] = len(s.Dependencies)
		for _, dep := range s.Dependencies {
			dependents[dep] = append(dependents[dep], s.ID)
		}
	}

	queue := make([]string, 0, len(steps))
	for _, s := range steps {
		if indegree[s.ID] == 0 {
			queue = append(queue, s.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != len(steps) {
		var stuck []string
		for id, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		return fmt.Errorf("%w: involving steps %v", ErrCyclicDependency, stuck)
	}
	return nil
}
