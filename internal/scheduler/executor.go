package scheduler

import (
	"context"
	"log/slog"

	"github.com/shaiso/Conveyor/internal/dispatch"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/retry"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// StepExecutor выполняет один шаг: находит Dispatcher по типу шага и
// вызывает его с retry-обёрткой. Статусы шага не трогает — переходы
// делает Scheduler под своим мьютексом.
type StepExecutor struct {
	registry *dispatch.Registry
	retrier  *retry.Executor
	logger   *slog.Logger
}

// NewStepExecutor создаёт StepExecutor.
func NewStepExecutor(registry *dispatch.Registry, retrier *retry.Executor, logger *slog.Logger) *StepExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StepExecutor{
		registry: registry,
		retrier:  retrier,
		logger:   logger,
	}
}

// Run выполняет шаг и возвращает результат, число сделанных попыток
// и ошибку последней попытки. Бюджет повторов берётся из шага.
func (e *StepExecutor) Run(ctx context.Context, step *domain.Step) (any, int, error) {
	d, err := e.registry.Get(step.Kind)
	if err != nil {
		return nil, 0, err
	}

	attempts := 0
	result, err := e.retrier.Do(ctx, string(step.Kind), step.MaxRetries, func(ctx context.Context) (any, error) {
		attempts++
		return d.Dispatch(ctx, step.Parameters)
	})
	if err != nil {
		logger := telemetry.WithStepID(telemetry.FromContext(ctx), step.ID)
		logger.Debug("step dispatch failed",
			"kind", step.Kind,
			"attempts", attempts,
			"error", err,
		)
		return nil, attempts, err
	}
	return result, attempts, nil
}
