// Package plan строит и валидирует планы выполнения: программный
// builder, загрузка из YAML и готовый шаблон исследовательского
// плана. Валидация гарантирует, что граф зависимостей ссылается
// только на существующие шаги и не содержит циклов.
package plan
