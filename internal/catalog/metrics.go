package catalog

import "github.com/prometheus/client_golang/prometheus"

const (
	resultSuccess  = "success"
	resultInvalid  = "invalid"
	resultNotFound = "not_found"
	resultFailure  = "failure"
)

type Metrics struct {
	Operations    *prometheus.CounterVec
	SearchMatches prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_operations_total",
				Help: "Catalog operations by outcome",
			},
			[]string{"op", "result"},
		),
		SearchMatches: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_search_matches",
				Help:    "Products matched per search",
				Buckets: prometheus.ExponentialBuckets(1, 4, 6),
			},
		),
	}

	reg.MustRegister(m.Operations, m.SearchMatches)
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, resultOf(err)).Inc()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return resultSuccess
	case isValidation(err):
		return resultInvalid
	case isNotFound(err):
		return resultNotFound
	default:
		return resultFailure
	}
}
