// Package telemetry — наблюдаемость: настройка структурного
// логирования (slog) и Prometheus-метрики движка.
package telemetry
