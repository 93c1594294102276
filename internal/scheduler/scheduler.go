package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/shaiso/Conveyor/internal/dispatch"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/retry"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Default scheduler configuration.
const (
	defaultMaxConcurrentTasks = 3
	defaultBatchTimeout       = 300 * time.Second
	defaultFailureThreshold   = 0.3

	// adaptivePriorityBound — шаги с priority <= bound выполняются
	// в последовательной фазе adaptive стратегии.
	adaptivePriorityBound = 2
)

// Notifier получает уведомления о жизненном цикле плана.
// Реализация не должна блокировать выполнение.
type Notifier interface {
	PlanStarted(ctx context.Context, p *domain.Plan)
	PlanFinished(ctx context.Context, p *domain.Plan, summary *domain.ExecutionSummary)
	StepFinished(ctx context.Context, p *domain.Plan, step *domain.Step)
}

// Archiver сохраняет планы и итоги выполнения во внешнее хранилище.
// Ошибки архивации логируются, но не влияют на выполнение.
type Archiver interface {
	SavePlan(ctx context.Context, p *domain.Plan) error
	SaveSummary(ctx context.Context, summary *domain.ExecutionSummary) error
}

// Config — конфигурация планировщика.
type Config struct {
	// Registry — реестр исполнителей шагов. Обязателен.
	Registry *dispatch.Registry

	// Retrier — retry-исполнитель. Обязателен.
	Retrier *retry.Executor

	// MaxConcurrentTasks — предел параллелизма батча (default: 3).
	MaxConcurrentTasks int

	// BatchTimeout — таймаут одного батча в parallel/adaptive
	// стратегиях (default: 300s).
	BatchTimeout time.Duration

	// FailureThreshold — доля отказов от числа уже выполненных
	// шагов, при превышении которой план прерывается (default: 0.3).
	FailureThreshold float64

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// Notifier — опциональные уведомления (AMQP и т.п.).
	Notifier Notifier

	// Archiver — опциональное хранилище итогов (Postgres и т.п.).
	Archiver Archiver
}

// planState — состояние выполнения одного плана.
type planState struct {
	plan      *domain.Plan
	startedAt time.Time
	attempted int
	failed    int
	aborted   bool
	summary   *domain.ExecutionSummary
}

// Scheduler выполняет планы и хранит их состояние для запросов
// статуса и истории.
type Scheduler struct {
	cfg    Config
	exec   *StepExecutor
	sem    *semaphore.Weighted
	logger *slog.Logger

	mu      sync.RWMutex
	plans   map[uuid.UUID]*planState
	history []*domain.ExecutionSummary
}

// New создаёт Scheduler с заполнением дефолтов.
func New(cfg Config) *Scheduler {
	if cfg.MaxConcurrentTasks <= 0 {
		cfg.MaxConcurrentTasks = defaultMaxConcurrentTasks
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}
	if cfg.FailureThreshold <= 0 || cfg.FailureThreshold > 1 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{
		cfg:    cfg,
		exec:   NewStepExecutor(cfg.Registry, cfg.Retrier, cfg.Logger),
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrentTasks)),
		logger: cfg.Logger,
		plans:  make(map[uuid.UUID]*planState),
	}
}

// Execute выполняет план согласно его стратегии и возвращает итог.
//
// Summary возвращается всегда, в том числе при частичном отказе:
// ошибки шагов и уровня плана — данные summary. Невозвратная ошибка
// возможна только при повторном запуске того же плана.
func (s *Scheduler) Execute(ctx context.Context, p *domain.Plan) (*domain.ExecutionSummary, error) {
	s.mu.Lock()
	if st, ok := s.plans[p.ID]; ok && st.plan.Status == domain.PlanStatusRunning {
		s.mu.Unlock()
		return nil, ErrPlanAlreadyRunning
	}
	ps := &planState{plan: p, startedAt: time.Now()}
	s.plans[p.ID] = ps
	p.MarkRunning()
	s.mu.Unlock()

	ctx = telemetry.WithLogger(ctx, telemetry.WithPlanID(s.logger, p.ID.String()))

	s.logger.Info("plan execution started",
		"plan_id", p.ID,
		"topic", p.Topic,
		"strategy", p.Strategy,
		"steps", len(p.Steps),
	)

	if s.cfg.Notifier != nil {
		s.cfg.Notifier.PlanStarted(ctx, p)
	}
	if s.cfg.Archiver != nil {
		if err := s.cfg.Archiver.SavePlan(ctx, p); err != nil {
			s.logger.Warn("failed to archive plan", "plan_id", p.ID, "error", err)
		}
	}

	var planErrs []string
	switch p.Strategy {
	case domain.StrategySequential:
		planErrs = s.runSequential(ctx, ps, nil)
	case domain.StrategyParallel:
		planErrs = s.runParallel(ctx, ps, nil)
	case domain.StrategyAdaptive:
		planErrs = s.runAdaptive(ctx, ps)
	default:
		planErrs = s.runAdaptive(ctx, ps)
	}

	summary := s.finish(ctx, ps, planErrs)
	return summary, nil
}

// stepFilter ограничивает множество шагов, которыми занимается
// конкретная фаза. nil означает "все шаги".
type stepFilter func(*domain.Step) bool

// runSequential выполняет готовые шаги по одному, в порядке
// приоритета (tie-break — порядок добавления).
func (s *Scheduler) runSequential(ctx context.Context, ps *planState, filter stepFilter) []string {
	var errs []string

	for {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err().Error())
			return errs
		}

		step := s.nextStep(ps, filter)
		if step == nil {
			return errs
		}

		s.runStep(ctx, ps, step)

		if s.thresholdExceeded(ps) {
			errs = append(errs, s.abortOverThreshold(ps).Error())
			return errs
		}
	}
}

// runParallel выполняет готовые шаги батчами: каждый батч — все
// готовые на данный момент шаги, с ограничением параллелизма и общим
// таймаутом батча.
func (s *Scheduler) runParallel(ctx context.Context, ps *planState, filter stepFilter) []string {
	var errs []string

	for {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err().Error())
			return errs
		}

		batch := s.nextBatch(ps, filter)
		if len(batch) == 0 {
			return errs
		}

		batchCtx, cancel := context.WithTimeout(ctx, s.cfg.BatchTimeout)
		var wg sync.WaitGroup
		for _, step := range batch {
			if err := s.sem.Acquire(batchCtx, 1); err != nil {
				// Таймаут батча наступил до старта шага.
				s.markTimedOut(ps, step)
				continue
			}
			wg.Add(1)
			go func(step *domain.Step) {
				defer wg.Done()
				defer s.sem.Release(1)
				s.runStep(batchCtx, ps, step)
			}(step)
		}
		wg.Wait()
		cancel()

		if batchCtx.Err() == context.DeadlineExceeded {
			s.logger.Warn("batch timed out",
				"plan_id", ps.plan.ID,
				"timeout", s.cfg.BatchTimeout,
			)
		}

		if s.thresholdExceeded(ps) {
			errs = append(errs, s.abortOverThreshold(ps).Error())
			return errs
		}
	}
}

// runAdaptive: шаги с priority <= 2 — последовательно (критический
// путь), остальные — параллельными батчами.
func (s *Scheduler) runAdaptive(ctx context.Context, ps *planState) []string {
	high := func(st *domain.Step) bool { return st.Priority <= adaptivePriorityBound }

	errs := s.runSequential(ctx, ps, high)
	if s.isAborted(ps) {
		return errs
	}
	return append(errs, s.runParallel(ctx, ps, nil)...)
}

// nextStep выбирает следующий шаг для sequential фазы: готовый шаг с
// наименьшим значением priority.
func (s *Scheduler) nextStep(ps *planState, filter stepFilter) *domain.Step {
	batch := s.nextBatch(ps, filter)
	if len(batch) == 0 {
		return nil
	}
	return batch[0]
}

// nextBatch возвращает готовые шаги, отсортированные по приоритету.
//
// Шаг, чья зависимость завершилась неуспешно (в том числе
// транзитивно), никогда не стартует и остаётся в статусе PENDING до
// конца плана. В фазовом запуске (adaptive) шаг, ждущий
// PENDING-зависимость вне текущей фазы, пропускается — им займётся
// следующая фаза. Если после этого готовых нет, а взаимно ждущие
// PENDING шаги остались (цикл, не пойманный при построении),
// принудительно выбирается шаг с наименьшим значением priority —
// решение логируется.
func (s *Scheduler) nextBatch(ps *planState, filter stepFilter) []*domain.Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	dead := deadSteps(ps.plan)

	var ready, stuck []*domain.Step
	for _, step := range ps.plan.Steps {
		if step.Status != domain.StepStatusPending {
			continue
		}
		if filter != nil && !filter(step) {
			continue
		}
		if dead[step.ID] {
			continue
		}
		if s.depsCompleted(ps.plan, step) {
			ready = append(ready, step)
			continue
		}
		if filter != nil && waitsOutsideFilter(ps.plan, step, filter) {
			continue
		}
		stuck = append(stuck, step)
	}

	if len(ready) > 0 {
		sortByPriority(ready)
		return ready
	}
	if len(stuck) == 0 {
		return nil
	}

	// Deadlock: PENDING шаги есть, готовых нет и никто не ждёт
	// упавшую зависимость или другую фазу. Принудительный выбор.
	sortByPriority(stuck)
	forced := stuck[0]
	s.logger.Warn("dependency deadlock: forcing step execution",
		"plan_id", ps.plan.ID,
		"step_id", forced.ID,
		"priority", forced.Priority,
	)
	return []*domain.Step{forced}
}

// deadSteps возвращает ID шагов, которые уже не смогут завершиться
// успешно: сами завершились неуспешно или (транзитивно) зависят от
// такого шага.
func deadSteps(p *domain.Plan) map[string]bool {
	dead := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		if step.Status == domain.StepStatusFailed || step.Status == domain.StepStatusCancelled {
			dead[step.ID] = true
		}
	}
	for changed := true; changed; {
		changed = false
		for _, step := range p.Steps {
			if step.Status != domain.StepStatusPending || dead[step.ID] {
				continue
			}
			for _, dep := range step.Dependencies {
				if dead[dep] {
					dead[step.ID] = true
					changed = true
					break
				}
			}
		}
	}
	return dead
}

// waitsOutsideFilter: шаг ждёт PENDING-зависимость, не входящую в
// текущую фазу.
func waitsOutsideFilter(p *domain.Plan, step *domain.Step, filter stepFilter) bool {
	for _, dep := range step.Dependencies {
		d := p.StepByID(dep)
		if d != nil && d.Status == domain.StepStatusPending && !filter(d) {
			return true
		}
	}
	return false
}

// depsCompleted: все зависимости шага в статусе COMPLETED.
func (s *Scheduler) depsCompleted(p *domain.Plan, step *domain.Step) bool {
	for _, dep := range step.Dependencies {
		d := p.StepByID(dep)
		if d == nil || d.Status != domain.StepStatusCompleted {
			return false
		}
	}
	return true
}

// runStep выполняет один шаг: переходы статусов под мьютексом,
// dispatch с retry — вне его.
func (s *Scheduler) runStep(ctx context.Context, ps *planState, step *domain.Step) {
	s.mu.Lock()
	step.MarkRunning()
	s.mu.Unlock()

	telemetry.RunningSteps.Inc()
	defer telemetry.RunningSteps.Dec()

	s.logger.Info("step started",
		"plan_id", ps.plan.ID,
		"step_id", step.ID,
		"kind", step.Kind,
	)

	result, attempts, err := s.exec.Run(ctx, step)

	s.mu.Lock()
	if attempts > 1 {
		step.RetryCount = attempts - 1
		telemetry.RetriesTotal.WithLabelValues(string(step.Kind)).Add(float64(attempts - 1))
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("%w: %v", ErrBatchTimeout, err)
		}
		step.MarkFailed(err.Error())
		ps.failed++
	} else {
		step.MarkCompleted(result)
	}
	ps.attempted++
	status := step.Status
	duration := step.Duration()
	s.mu.Unlock()

	telemetry.StepsTotal.WithLabelValues(string(step.Kind), string(status)).Inc()
	telemetry.StepDuration.WithLabelValues(string(step.Kind)).Observe(duration.Seconds())

	if err != nil {
		s.logger.Error("step failed",
			"plan_id", ps.plan.ID,
			"step_id", step.ID,
			"retries", step.RetryCount,
			"error", err,
		)
	} else {
		s.logger.Info("step completed",
			"plan_id", ps.plan.ID,
			"step_id", step.ID,
			"duration", duration,
		)
	}

	if s.cfg.Notifier != nil {
		s.cfg.Notifier.StepFinished(ctx, ps.plan, step)
	}
}

// markTimedOut помечает шаг, не успевший стартовать до таймаута батча.
func (s *Scheduler) markTimedOut(ps *planState, step *domain.Step) {
	s.mu.Lock()
	step.MarkFailed(ErrBatchTimeout.Error())
	ps.attempted++
	ps.failed++
	s.mu.Unlock()
	telemetry.StepsTotal.WithLabelValues(string(step.Kind), string(domain.StepStatusFailed)).Inc()
}

// thresholdExceeded: доля отказов от уже выполненных шагов выше порога.
func (s *Scheduler) thresholdExceeded(ps *planState) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ps.attempted == 0 {
		return false
	}
	return float64(ps.failed)/float64(ps.attempted) > s.cfg.FailureThreshold
}

// abortOverThreshold фиксирует прерывание плана и возвращает ошибку
// прерывания. Оставшиеся PENDING шаги не стартуют, но статус их не
// меняется.
func (s *Scheduler) abortOverThreshold(ps *planState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps.aborted = true
	rate := float64(ps.failed) / float64(ps.attempted)
	s.logger.Error("plan aborted: failure threshold exceeded",
		"plan_id", ps.plan.ID,
		"failed", ps.failed,
		"attempted", ps.attempted,
		"threshold", s.cfg.FailureThreshold,
	)
	return fmt.Errorf("%w: %.0f%% of %d executed steps failed", ErrFailureThresholdExceeded, rate*100, ps.attempted)
}

// finish собирает итоговый summary, выставляет статус плана и
// рассылает уведомления.
func (s *Scheduler) finish(ctx context.Context, ps *planState, planErrs []string) *domain.ExecutionSummary {
	s.mu.Lock()

	summary := &domain.ExecutionSummary{
		PlanID:     ps.plan.ID,
		Results:    make(map[string]*domain.ExecutionResult, len(ps.plan.Steps)),
		Errors:     planErrs,
		FinishedAt: time.Now(),
	}
	summary.TotalDuration = summary.FinishedAt.Sub(ps.startedAt)

	allCompleted := true
	for _, step := range ps.plan.Steps {
		r := &domain.ExecutionResult{
			StepID:        step.ID,
			Success:       step.Status == domain.StepStatusCompleted,
			ExecutionTime: step.Duration(),
		}
		switch step.Status {
		case domain.StepStatusCompleted:
			r.Data = step.Result
			summary.CompletedCount++
		case domain.StepStatusFailed:
			r.Error = step.Error
			summary.FailedCount++
			summary.Errors = append(summary.Errors, fmt.Sprintf("step %s: %s", step.ID, step.Error))
			allCompleted = false
		default:
			r.Error = step.Error
			allCompleted = false
		}
		summary.Results[step.ID] = r
	}
	summary.Success = allCompleted

	if allCompleted {
		ps.plan.MarkCompleted()
	} else {
		ps.plan.MarkFailed()
	}
	ps.summary = summary
	s.history = append(s.history, summary)
	status := ps.plan.Status
	s.mu.Unlock()

	telemetry.PlansTotal.WithLabelValues(string(status)).Inc()

	s.logger.Info("plan execution finished",
		"plan_id", ps.plan.ID,
		"status", status,
		"completed", summary.CompletedCount,
		"failed", summary.FailedCount,
		"duration", summary.TotalDuration,
	)

	if s.cfg.Notifier != nil {
		s.cfg.Notifier.PlanFinished(ctx, ps.plan, summary)
	}
	if s.cfg.Archiver != nil {
		if err := s.cfg.Archiver.SaveSummary(ctx, summary); err != nil {
			s.logger.Warn("failed to archive summary", "plan_id", ps.plan.ID, "error", err)
		}
	}

	return summary
}

// Progress возвращает снимок прогресса плана.
func (s *Scheduler) Progress(planID uuid.UUID) (*domain.PlanProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.plans[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}

	pr := &domain.PlanProgress{
		PlanID:     planID,
		Topic:      ps.plan.Topic,
		Status:     ps.plan.Status,
		TotalSteps: len(ps.plan.Steps),
	}
	finished := 0
	for _, step := range ps.plan.Steps {
		switch step.Status {
		case domain.StepStatusCompleted:
			pr.CompletedSteps++
			finished++
		case domain.StepStatusFailed:
			pr.FailedSteps++
			finished++
		case domain.StepStatusCancelled:
			finished++
		case domain.StepStatusRunning:
			pr.RunningSteps++
		}
	}
	if pr.TotalSteps > 0 {
		pr.Progress = float64(finished) / float64(pr.TotalSteps)
	}
	return pr, nil
}

// Summary возвращает итог выполнения плана, если оно завершилось.
func (s *Scheduler) Summary(planID uuid.UUID) (*domain.ExecutionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, ok := s.plans[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return ps.summary, nil
}

// History возвращает итоги всех завершённых планов в порядке
// завершения.
func (s *Scheduler) History() []*domain.ExecutionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.ExecutionSummary, len(s.history))
	copy(out, s.history)
	return out
}

// isAborted: план прерван по порогу отказов.
func (s *Scheduler) isAborted(ps *planState) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ps.aborted
}

// sortByPriority сортирует шаги по возрастанию priority, сохраняя
// порядок добавления при равенстве.
func sortByPriority(steps []*domain.Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Priority < steps[j].Priority
	})
}
