package retry

import (
	"math/rand"
	"time"
)

// Strategy — стратегия вычисления задержки между попытками.
type Strategy string

const (
	// StrategyFixedDelay — постоянная задержка.
	StrategyFixedDelay Strategy = "fixed_delay"

	// StrategyExponentialBackoff — delay = base * factor^attempt.
	StrategyExponentialBackoff Strategy = "exponential_backoff"

	// StrategyLinearBackoff — delay = base * (attempt+1).
	StrategyLinearBackoff Strategy = "linear_backoff"

	// StrategyRandomJitter — delay = base + random(0, base).
	StrategyRandomJitter Strategy = "random_jitter"
)

// Backoff вычисляет задержку перед попыткой attempt (нумерация с 0).
//
// При jitter=true к вычисленной задержке добавляется 10–30% случайного
// запаса, чтобы избежать синхронных повторов (thundering herd).
// Для StrategyRandomJitter дополнительный jitter не применяется —
// случайность уже заложена в стратегию.
// Итоговая задержка ограничена maxDelay.
func Backoff(attempt int, base time.Duration, strategy Strategy, factor float64, jitter bool, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if maxDelay <= 0 {
		maxDelay = time.Minute
	}
	if factor <= 1 {
		factor = 2.0
	}

	var delay time.Duration
	switch strategy {
	case StrategyFixedDelay:
		delay = base

	case StrategyExponentialBackoff:
		delay = base
		for i := 0; i < attempt; i++ {
			delay = time.Duration(float64(delay) * factor)
			if delay > maxDelay {
				delay = maxDelay
				break
			}
		}

	case StrategyLinearBackoff:
		delay = base * time.Duration(attempt+1)

	case StrategyRandomJitter:
		delay = base + time.Duration(rand.Int63n(int64(base)))

	default:
		delay = base
	}

	if jitter && strategy != StrategyRandomJitter {
		slack := 0.1 + 0.2*rand.Float64()
		delay += time.Duration(float64(delay) * slack)
	}

	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
