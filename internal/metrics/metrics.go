// Package metrics exposes Prometheus collectors for lookups and dataset fetches.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gcbaptista/go-dictionary-lookup/model"
)

const namespace = "lookup"

var SearchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "engine",
	Name:      "search_duration_seconds",
	Help:      "Wall-clock time of timed searches.",
	Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
}, []string{"strategy"})

var SearchResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "engine",
	Name:      "search_results",
	Help:      "Number of entries returned by timed searches.",
	Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 150},
}, []string{"strategy"})

var DatasetFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "dataset",
	Name:      "fetches_total",
	Help:      "Dataset loads and refreshes by outcome.",
}, []string{"operation", "result"})

var DatasetEntries = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "dataset",
	Name:      "entries",
	Help:      "Entries in the currently loaded dataset.",
})

// Collectors returns every collector of this package
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{SearchDuration, SearchResults, DatasetFetches, DatasetEntries}
}

// Register adds the collectors to reg. Collectors that are already registered are skipped.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Recorder receives engine measurements
type Recorder interface {
	ObserveSearch(strategy model.Strategy, took time.Duration, results int)
	ObserveFetch(operation string, err error, entries int)
}

// Prometheus records into the package collectors
type Prometheus struct{}

func (Prometheus) ObserveSearch(strategy model.Strategy, took time.Duration, results int) {
	SearchDuration.WithLabelValues(string(strategy)).Observe(took.Seconds())
	SearchResults.WithLabelValues(string(strategy)).Observe(float64(results))
}

func (Prometheus) ObserveFetch(operation string, err error, entries int) {
	if err != nil {
		DatasetFetches.WithLabelValues(operation, "error").Inc()
		return
	}
	DatasetFetches.WithLabelValues(operation, "ok").Inc()
	DatasetEntries.Set(float64(entries))
}

// Nop discards everything
type Nop struct{}

func (Nop) ObserveSearch(model.Strategy, time.Duration, int) {}
func (Nop) ObserveFetch(string, error, int)                  {}
