// Package dispatch определяет контракт между движком и внешними
// исполнителями шагов: интерфейс Dispatcher, реестр kind → Dispatcher
// и таксономию операционных ошибок.
//
// Scheduler никогда не ветвится по типу шага — вся kind-специфичная
// логика живёт за реестром.
package dispatch
