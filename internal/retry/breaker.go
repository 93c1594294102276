package retry

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BreakerState — состояние circuit breaker'а.
type BreakerState string

const (
	// BreakerClosed — вызовы проходят нормально.
	BreakerClosed BreakerState = "closed"

	// BreakerOpen — вызовы блокируются до истечения recovery timeout.
	BreakerOpen BreakerState = "open"

	// BreakerHalfOpen — разрешён ровно один пробный вызов.
	BreakerHalfOpen BreakerState = "half_open"
)

// Default breaker configuration.
const (
	defaultFailureThreshold = 5
	defaultRecoveryTimeout  = time.Minute
)

// CircuitBreaker защищает от каскадных отказов: после
// failureThreshold подряд идущих ошибок переходит в Open и блокирует
// вызовы на recoveryTimeout; затем пропускает один пробный вызов
// (HalfOpen) — успех закрывает цепь, ошибка снова открывает и
// сбрасывает таймер.
type CircuitBreaker struct {
	failureThreshold int
	recoveryTimeout  time.Duration
	logger           *slog.Logger

	mu           sync.Mutex
	state        BreakerState
	failureCount int
	lastFailure  time.Time
	trialActive  bool
}

// BreakerConfig — конфигурация circuit breaker'а.
type BreakerConfig struct {
	// FailureThreshold — число подряд идущих ошибок до открытия
	// цепи (default: 5).
	FailureThreshold int

	// RecoveryTimeout — время до пробного вызова (default: 60s).
	RecoveryTimeout time.Duration

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// NewBreaker создаёт CircuitBreaker в состоянии Closed.
func NewBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = defaultRecoveryTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &CircuitBreaker{
		failureThreshold: cfg.FailureThreshold,
		recoveryTimeout:  cfg.RecoveryTimeout,
		logger:           cfg.Logger,
		state:            BreakerClosed,
	}
}

// State возвращает текущее состояние.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Call выполняет op под защитой breaker'а.
// В состоянии Open возвращает ErrCircuitOpen без вызова op.
func (b *CircuitBreaker) Call(ctx context.Context, op func(context.Context) (any, error)) (any, error) {
	if err := b.before(); err != nil {
		return nil, err
	}

	result, err := op(ctx)
	b.after(err)
	return result, err
}

// before проверяет, разрешён ли вызов, и переводит Open → HalfOpen
// по истечении recovery timeout.
func (b *CircuitBreaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return nil

	case BreakerOpen:
		if time.Since(b.lastFailure) < b.recoveryTimeout {
			return ErrCircuitOpen
		}
		b.state = BreakerHalfOpen
		b.trialActive = true
		b.logger.Info("circuit breaker entering half-open state")
		return nil

	case BreakerHalfOpen:
		// В half-open разрешён ровно один пробный вызов.
		if b.trialActive {
			return ErrCircuitOpen
		}
		b.trialActive = true
		return nil
	}

	return nil
}

// after фиксирует результат вызова.
func (b *CircuitBreaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failureCount = 0
		if b.state != BreakerClosed {
			b.state = BreakerClosed
			b.logger.Info("circuit breaker closed after successful recovery")
		}
		b.trialActive = false
		return
	}

	b.failureCount++
	b.lastFailure = time.Now()
	b.trialActive = false

	if b.state == BreakerHalfOpen || b.failureCount >= b.failureThreshold {
		if b.state != BreakerOpen {
			b.logger.Warn("circuit breaker opened",
				"failures", b.failureCount,
			)
		}
		b.state = BreakerOpen
	}
}
