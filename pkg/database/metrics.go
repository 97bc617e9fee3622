package database

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var storageOperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "dynamodb_operation_duration_seconds",
		Help:    "Duration of DynamoDB calls by operation and outcome",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	},
	[]string{"operation", "outcome"},
)

// RegisterMetrics registers the storage collectors on reg. Calls are
// recorded whether or not the collectors are registered.
func RegisterMetrics(reg prometheus.Registerer) error {
	if err := reg.Register(storageOperationDuration); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

func observeOperation(operation string, err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	storageOperationDuration.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
}
