// Package domain содержит основные модели данных Conveyor:
// Plan, Step, ExecutionResult, ExecutionSummary и их статусы.
//
// Модели — публичный контракт движка: их заполняет Builder,
// мутирует Scheduler/StepExecutor, читает вызывающая сторона.
package domain
