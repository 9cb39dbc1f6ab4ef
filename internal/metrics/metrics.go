package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels analyses that produced bug details.
	OutcomeSuccess = "success"
	// OutcomeError labels analyses that failed on input or a dependency.
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "failure_insights",
			Name:      "analyses_total",
			Help:      "Total number of bug analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "failure_insights",
			Name:      "analysis_seconds",
			Help:      "Bug analysis latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	catalogSignatures = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "failure_insights",
			Name:      "catalog_signatures",
			Help:      "Number of distinct log signatures per analysed view.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

// Register attaches the service collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{analysesTotal, analysisDurationSeconds, catalogSignatures} {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	if outcome != OutcomeError {
		outcome = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// ObserveCatalogSize records how many signatures a view catalogued.
func ObserveCatalogSize(n int) {
	catalogSignatures.Observe(float64(n))
}
