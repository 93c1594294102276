// Package schedule — периодический запуск планов: cron-выражения и
// простые интервалы. Runner держит расписания в памяти и запускает
// план в момент наступления next-due.
package schedule
