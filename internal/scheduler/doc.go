// Package scheduler — ядро движка: выполняет план с учётом графа
// зависимостей. Поддерживает три стратегии: sequential (по одному
// шагу в порядке приоритета), parallel (батчи готовых шагов с
// ограничением параллелизма) и adaptive (высокоприоритетные шаги
// последовательно, остальные параллельно).
//
// Планировщик отслеживает долю отказов и прерывает план при
// превышении порога; обнаруженный во время выполнения dependency
// deadlock разрешается принудительным выбором шага, а не зависанием.
package scheduler
