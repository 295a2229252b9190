package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "beliefd",
			Subsystem: "engine",
			Name:      "generation_duration_seconds",
			Help:      "Duration of generations in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode", "outcome"},
	)

	generationsInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "beliefd",
			Subsystem: "engine",
			Name:      "inflight_generations",
			Help:      "Generations currently holding an admission slot",
		},
	)

	admissionRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beliefd",
			Subsystem: "engine",
			Name:      "admission_rejected_total",
			Help:      "Generations rejected after waiting for an admission slot",
		},
	)
)

func init() {
	prometheus.MustRegister(generationDuration, generationsInflight, admissionRejectedTotal)
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsTooBusy(err):
		return "busy"
	case IsDependencyUnavailable(err):
		return "unavailable"
	default:
		return "error"
	}
}
