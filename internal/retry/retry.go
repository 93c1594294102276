package retry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Conveyor/internal/dispatch"
)

// Default configuration values.
const (
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second
	defaultMaxDelay   = time.Minute
	defaultFactor     = 2.0
)

// Config — конфигурация retry-исполнителя.
type Config struct {
	// MaxRetries — бюджет повторов (default: 3).
	// Общее число попыток — MaxRetries+1.
	MaxRetries int

	// BaseDelay — базовая задержка (default: 1s).
	BaseDelay time.Duration

	// MaxDelay — верхняя граница задержки (default: 60s).
	MaxDelay time.Duration

	// Strategy — стратегия backoff (default: exponential).
	Strategy Strategy

	// Factor — множитель экспоненциального backoff (default: 2.0).
	Factor float64

	// Jitter — добавлять 10–30% случайного запаса к задержке.
	Jitter bool

	// RetryIf — предикат: повторять ли после данной ошибки.
	// Default: dispatch.IsRetryable (только Transient и
	// ResourceExhausted; ошибки валидации не повторяются).
	RetryIf func(error) bool

	// RetryOnResult — предикат: повторять ли при "успешном" результате
	// (например, пустой или некорректный payload). Опционально.
	RetryOnResult func(any) bool

	// Breaker — опциональный circuit breaker вокруг операции.
	Breaker *CircuitBreaker

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// Stats — счётчики одной операции.
type Stats struct {
	// TotalCalls — число вызовов Do.
	TotalCalls int64

	// TotalRetries — число повторных попыток.
	TotalRetries int64

	// SuccessCount — число успешных завершений.
	SuccessCount int64

	// FailureCount — число завершений с ошибкой.
	FailureCount int64
}

// SuccessRate возвращает долю успешных вызовов (0.0–1.0).
func (s Stats) SuccessRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.TotalCalls)
}

// Executor выполняет операции с retry и ведёт статистику по именам
// операций для наблюдаемости.
type Executor struct {
	cfg Config

	mu    sync.Mutex
	stats map[string]*Stats
}

// New создаёт Executor с заполнением дефолтов.
func New(cfg Config) *Executor {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyExponentialBackoff
	}
	if cfg.Factor <= 1 {
		cfg.Factor = defaultFactor
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = dispatch.IsRetryable
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Executor{
		cfg:   cfg,
		stats: make(map[string]*Stats),
	}
}

// Do выполняет операцию op с повторами.
//
// maxRetries < 0 означает "использовать значение из Config".
// При исчерпании попыток возвращается последняя ошибка операции
// без изменений — retry никогда не маскирует класс исходного отказа.
// Задержки прерываются отменой контекста.
func (e *Executor) Do(ctx context.Context, name string, maxRetries int, op func(context.Context) (any, error)) (any, error) {
	if maxRetries < 0 {
		maxRetries = e.cfg.MaxRetries
	}

	st := e.statsFor(name)
	e.mu.Lock()
	st.TotalCalls++
	e.mu.Unlock()

	var lastErr error
	var lastResult any

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := Backoff(attempt-1, e.cfg.BaseDelay, e.cfg.Strategy, e.cfg.Factor, e.cfg.Jitter, e.cfg.MaxDelay)
			e.cfg.Logger.Debug("retrying operation",
				"operation", name,
				"attempt", attempt,
				"delay", delay,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				e.countFailure(st)
				return nil, ctx.Err()
			}
			e.mu.Lock()
			st.TotalRetries++
			e.mu.Unlock()
		}

		result, err := e.call(ctx, op)

		if err == nil {
			// Результат может сам потребовать повтора.
			if e.cfg.RetryOnResult != nil && e.cfg.RetryOnResult(result) {
				lastResult, lastErr = result, nil
				e.cfg.Logger.Warn("operation returned retry-triggering result",
					"operation", name,
					"attempt", attempt,
				)
				continue
			}
			if attempt > 0 {
				e.cfg.Logger.Info("operation succeeded after retries",
					"operation", name,
					"retries", attempt,
				)
			}
			e.countSuccess(st)
			return result, nil
		}

		lastErr = err

		if !e.cfg.RetryIf(err) {
			e.cfg.Logger.Debug("operation failed with non-retryable error",
				"operation", name,
				"error", err,
			)
			e.countFailure(st)
			return nil, err
		}

		e.cfg.Logger.Warn("operation failed",
			"operation", name,
			"attempt", attempt,
			"error", err,
		)
	}

	e.countFailure(st)
	if lastErr != nil {
		return nil, lastErr
	}
	// Попытки исчерпаны result-предикатом: возвращаем последний
	// результат вместе с ErrRetryExhausted.
	return lastResult, ErrRetryExhausted
}

// call выполняет одну попытку, с учётом circuit breaker.
func (e *Executor) call(ctx context.Context, op func(context.Context) (any, error)) (any, error) {
	if e.cfg.Breaker != nil {
		return e.cfg.Breaker.Call(ctx, op)
	}
	return op(ctx)
}

// StatsFor возвращает копию счётчиков операции.
func (e *Executor) StatsFor(name string) Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.stats[name]; ok {
		return *st
	}
	return Stats{}
}

// AllStats возвращает копии счётчиков всех операций.
func (e *Executor) AllStats() map[string]Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]Stats, len(e.stats))
	for name, st := range e.stats {
		out[name] = *st
	}
	return out
}

// ResetStats сбрасывает все счётчики.
func (e *Executor) ResetStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = make(map[string]*Stats)
}

func (e *Executor) statsFor(name string) *Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.stats[name]
	if !ok {
		st = &Stats{}
		e.stats[name] = st
	}
	return st
}

func (e *Executor) countSuccess(st *Stats) {
	e.mu.Lock()
	st.SuccessCount++
	e.mu.Unlock()
}

func (e *Executor) countFailure(st *Stats) {
	e.mu.Lock()
	st.FailureCount++
	e.mu.Unlock()
}
