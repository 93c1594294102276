package scheduler

import "errors"

// Ошибки планировщика.
var (
	// ErrPlanNotFound — план с таким ID не регистрировался.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrPlanAlreadyRunning — повторный запуск того же плана.
	ErrPlanAlreadyRunning = errors.New("plan is already running")

	// ErrFailureThresholdExceeded — доля отказов превысила порог,
	// выполнение плана прервано.
	ErrFailureThresholdExceeded = errors.New("failure threshold exceeded")

	// ErrBatchTimeout — батч не уложился в отведённое время.
	ErrBatchTimeout = errors.New("batch execution timeout")
)
