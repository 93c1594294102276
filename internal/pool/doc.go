// Package pool реализует типизированный пул переиспользуемых
// ресурсов с ограниченным размером (например, браузерных сессий):
// acquire/release с таймаутом, FIFO-очередь ожидающих, фоновый reaper
// по idle-времени, TTL и числу использований.
//
// Пул — единственный владелец ресурсов: создание и уничтожение идут
// только через фабрику, вызывающая сторона держит handle строго между
// Acquire и Release.
package pool
