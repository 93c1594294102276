package pool

import "errors"

// Ошибки пула.
var (
	// ErrPoolClosed — пул закрыт; acquire невозможен, ожидающие
	// будятся с этой ошибкой.
	ErrPoolClosed = errors.New("resource pool is closed")

	// ErrAcquireTimeout — ресурс не получен за отведённый таймаут.
	ErrAcquireTimeout = errors.New("resource acquisition timeout")

	// ErrInvalidMaxSize — максимальный размер пула должен быть > 0.
	ErrInvalidMaxSize = errors.New("pool max size must be positive")
)
