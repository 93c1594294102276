// Package config — конфигурация процесса: YAML-файл с дефолтами и
// переопределением отдельных значений переменными окружения.
package config
