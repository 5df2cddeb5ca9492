// Package metrics exposes Prometheus instrumentation for the trainers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	TrainIterations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toyml_train_iterations_total",
			Help: "Total number of completed training iterations",
		},
		[]string{"model"},
	)

	LogLikelihood = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "toyml_train_log_likelihood",
			Help: "Log-likelihood of the corpus after the latest iteration",
		},
		[]string{"model"},
	)

	IterationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toyml_train_iteration_duration_seconds",
			Help:    "Wall time of one training iteration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"model"},
	)

	CheckpointWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toyml_checkpoint_writes_total",
			Help: "Checkpoint writes by outcome",
		},
		[]string{"model", "status"},
	)

	ExPLSAUsersProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toyml_explsa_users_processed_total",
			Help: "Users claimed by ExPLSA workers across all EM steps",
		},
	)
)

// RecordCheckpoint counts one checkpoint write for model.
func RecordCheckpoint(model string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	CheckpointWrites.WithLabelValues(model, status).Inc()
}
