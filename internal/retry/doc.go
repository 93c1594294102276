// Package retry реализует выполнение операции с ограниченным числом
// повторов и настраиваемой стратегией backoff, а также circuit breaker
// для защиты от стабильно падающих зависимостей.
package retry
