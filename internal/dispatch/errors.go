package dispatch

import "errors"

// Ошибки реестра.
var (
	// ErrUnknownKind — нет dispatcher'а для данного типа шага.
	ErrUnknownKind = errors.New("unknown step kind")

	// ErrNilDispatcher — попытка зарегистрировать nil dispatcher.
	ErrNilDispatcher = errors.New("nil dispatcher")
)

// ErrorKind — класс операционной ошибки.
//
// Retry-политика ветвится по классу, а не по тексту ошибки:
// повторяются только Transient и ResourceExhausted.
type ErrorKind string

const (
	// KindTransient — временная ошибка (сетевой сбой, таймаут,
	// rate limit). Подлежит retry.
	KindTransient ErrorKind = "transient"

	// KindValidation — ошибка валидации (невалидные параметры,
	// неизвестный тип шага). Retry бессмысленен.
	KindValidation ErrorKind = "validation"

	// KindResourceExhausted — исчерпание ресурса (пул на максимуме,
	// таймаут acquire). Подлежит retry.
	KindResourceExhausted ErrorKind = "resource_exhausted"

	// KindInternal — внутренняя ошибка исполнителя.
	KindInternal ErrorKind = "internal"
)

// OpError — операционная ошибка с классом.
type OpError struct {
	// Kind — класс ошибки.
	Kind ErrorKind

	// Op — операция, в которой произошла ошибка (для логов).
	Op string

	// Err — базовая ошибка.
	Err error
}

// Error реализует интерфейс error.
func (e *OpError) Error() string {
	if e.Op != "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap возвращает базовую ошибку.
func (e *OpError) Unwrap() error {
	return e.Err
}

// Transient создаёт ошибку класса Transient.
func Transient(op string, err error) *OpError {
	return &OpError{Kind: KindTransient, Op: op, Err: err}
}

// Validation создаёт ошибку класса Validation.
func Validation(op string, err error) *OpError {
	return &OpError{Kind: KindValidation, Op: op, Err: err}
}

// ResourceExhausted создаёт ошибку класса ResourceExhausted.
func ResourceExhausted(op string, err error) *OpError {
	return &OpError{Kind: KindResourceExhausted, Op: op, Err: err}
}

// Internal создаёт ошибку класса Internal.
func Internal(op string, err error) *OpError {
	return &OpError{Kind: KindInternal, Op: op, Err: err}
}

// KindOf возвращает класс ошибки.
// Для ошибок без класса возвращает KindInternal.
func KindOf(err error) ErrorKind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return KindInternal
}

// IsRetryable возвращает true для классов ошибок, подлежащих retry.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindResourceExhausted:
		return true
	default:
		return false
	}
}
