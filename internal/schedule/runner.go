package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// tickInterval — период проверки наступивших расписаний.
const tickInterval = time.Second

// Job — запускаемая по расписанию работа (обычно построение и
// выполнение плана).
type Job func(ctx context.Context)

// entry — расписание с вычисленным временем следующего запуска.
type entry struct {
	name    string
	spec    Spec
	job     Job
	nextDue time.Time
}

// Runner периодически запускает зарегистрированные работы.
type Runner struct {
	logger *slog.Logger

	mu      sync.Mutex
	entries []*entry

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewRunner создаёт Runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Add регистрирует работу job с расписанием spec.
func (r *Runner) Add(name string, spec Spec, job Job) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	next, err := spec.NextDue(time.Now())
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.entries = append(r.entries, &entry{
		name:    name,
		spec:    spec,
		job:     job,
		nextDue: next,
	})
	r.mu.Unlock()

	r.logger.Info("schedule registered", "name", name, "next_due", next)
	return nil
}

// Start запускает цикл проверки расписаний; блокирует до отмены ctx
// или Stop.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return
		case <-r.stopCh:
			r.wg.Wait()
			return
		case now := <-ticker.C:
			r.runDue(ctx, now)
		}
	}
}

// runDue запускает все наступившие работы и переносит их next-due.
func (r *Runner) runDue(ctx context.Context, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if now.Before(e.nextDue) {
			continue
		}

		next, err := e.spec.NextDue(now)
		if err != nil {
			r.logger.Error("failed to compute next due", "name", e.name, "error", err)
			continue
		}
		e.nextDue = next

		r.logger.Info("schedule fired", "name", e.name, "next_due", next)
		r.wg.Add(1)
		go func(e *entry) {
			defer r.wg.Done()
			e.job(ctx)
		}(e)
	}
}

// Stop останавливает Runner и дожидается запущенных работ.
func (r *Runner) Stop() {
	close(r.stopCh)
}
