// Package events публикует события жизненного цикла планов в
// RabbitMQ: plan.started, step.finished, plan.finished. Публикация —
// fire-and-forget: ошибки логируются и не влияют на выполнение плана.
package events
