package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики движка. Регистрируются в default registry и отдаются
// через promhttp в главном процессе.
var (
	// PlansTotal — число завершённых планов по итоговому статусу.
	PlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "plans_total",
		Help:      "Completed plans by final status.",
	}, []string{"status"})

	// StepsTotal — число завершённых шагов по типу и статусу.
	StepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "steps_total",
		Help:      "Finished steps by kind and status.",
	}, []string{"kind", "status"})

	// StepDuration — длительность выполнения шага по типу.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "conveyor",
		Name:      "step_duration_seconds",
		Help:      "Step execution duration by kind.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"kind"})

	// RetriesTotal — число повторных попыток по типу шага.
	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "retries_total",
		Help:      "Retry attempts by step kind.",
	}, []string{"kind"})

	// RunningSteps — число выполняющихся в данный момент шагов.
	RunningSteps = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "conveyor",
		Name:      "running_steps",
		Help:      "Steps currently executing.",
	})

	// PoolResources — текущее число ресурсов пула по состоянию.
	PoolResources = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "conveyor",
		Name:      "pool_resources",
		Help:      "Pool resources by state.",
	}, []string{"pool", "state"})
)
