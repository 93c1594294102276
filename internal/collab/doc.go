// Package collab содержит реализации Dispatcher для всех типов шагов:
// веб-поиск (DuckDuckGo), генерация текста (LLM), браузерная
// автоматизация (chromedp через пул сессий), выполнение кода,
// файловые операции и анализ данных.
//
// Каждый dispatcher возвращает ошибки с классом (dispatch.OpError):
// сетевые сбои — transient, кривые параметры — validation.
package collab
