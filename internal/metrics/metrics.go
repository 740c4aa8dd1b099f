// Package metrics exposes calculator activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Evaluation outcomes used as the status label.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Collector holds the Prometheus metrics of one or more calculators.
type Collector struct {
	registry *prometheus.Registry

	Evaluations      *prometheus.CounterVec
	InferenceSeconds *prometheus.HistogramVec
	Atoms            *prometheus.HistogramVec
	NeighborPairs    *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry. namespace prefixes
// every metric name and may be empty.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	evaluations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total number of structure evaluations",
		},
		[]string{"model_type", "status"},
	)

	inferenceSeconds := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time from structure to translated results",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 10),
		},
		[]string{"model_type"},
	)

	atoms := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "structure_atoms",
			Help:      "Number of atoms per evaluated structure",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"model_type"},
	)

	pairs := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "neighbor_pairs",
			Help:      "Number of neighbor pairs per md evaluation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"model_type"},
	)

	registry.MustRegister(evaluations, inferenceSeconds, atoms, pairs)

	return &Collector{
		registry:         registry,
		Evaluations:      evaluations,
		InferenceSeconds: inferenceSeconds,
		Atoms:            atoms,
		NeighborPairs:    pairs,
	}
}

// ObserveEvaluation records one evaluation. pairs is ignored when negative.
func (c *Collector) ObserveEvaluation(modelType string, atoms, pairs int, d time.Duration, err error) {
	if c == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	c.Evaluations.WithLabelValues(modelType, status).Inc()
	if err != nil {
		return
	}
	c.InferenceSeconds.WithLabelValues(modelType).Observe(d.Seconds())
	c.Atoms.WithLabelValues(modelType).Observe(float64(atoms))
	if pairs >= 0 {
		c.NeighborPairs.WithLabelValues(modelType).Observe(float64(pairs))
	}
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
