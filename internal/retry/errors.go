package retry

import "errors"

// Ошибки retry-исполнителя.
var (
	// ErrRetryExhausted — все попытки исчерпаны (используется только
	// когда result-предикат требует повтора при отсутствии ошибки;
	// при обычном исчерпании возвращается последняя ошибка операции).
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrCircuitOpen — circuit breaker открыт, вызов не выполнялся.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)
