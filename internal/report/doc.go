// Package report собирает итог выполнения плана в markdown-отчёт
// и экспортирует его на диск.
package report
