package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики оркестрации. Регистрируются в default registry;
// сервисы экспортируют их через promhttp на /metrics.
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partitura_runs_total",
		Help: "Finished runs by terminal status",
	}, []string{"status"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "partitura_run_duration_seconds",
		Help:    "Wall time of a run from start to terminal status",
		Buckets: prometheus.DefBuckets,
	})

	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "partitura_steps_total",
		Help: "Executed steps by result",
	}, []string{"result"})

	stepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "partitura_step_duration_seconds",
		Help:    "Wall time of a single step execution",
		Buckets: prometheus.DefBuckets,
	})

	reportsArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partitura_reports_archived_total",
		Help: "Run reports archived by the collector",
	})

	schedulesFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partitura_schedules_fired_total",
		Help: "Runs created by the scheduler from due schedules",
	})
)

// ObserveRun записывает метрики завершённого run.
func ObserveRun(status string, d time.Duration) {
	runsTotal.WithLabelValues(status).Inc()
	runDuration.Observe(d.Seconds())
}

// ObserveStep записывает метрики выполненного шага.
func ObserveStep(success bool, d time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	stepsTotal.WithLabelValues(result).Inc()
	stepDuration.Observe(d.Seconds())
}

// ReportArchived увеличивает счётчик заархивированных отчётов.
func ReportArchived() {
	reportsArchived.Inc()
}

// ScheduleFired увеличивает счётчик сработавших расписаний.
func ScheduleFired() {
	schedulesFired.Inc()
}
