// Package repo — архив планов и итогов выполнения в PostgreSQL.
// Хранилище write-mostly: движок пишет планы и summary, чтение —
// для истории и внешней аналитики.
package repo
