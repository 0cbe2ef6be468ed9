// Package metrics instruments batch runs with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opLabel      = "op"
	resultLabel  = "result"
	errTypeLabel = "error_type"

	resultSuccess = "success"
	resultFailure = "failure"
)

var (
	assetsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colliderbake_assets_processed",
		Help: "The number of assets processed by a batch operation.",
	}, []string{
		opLabel,
		resultLabel,
	})

	assetErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colliderbake_asset_errors",
		Help: "The errors that occurred while editing an asset.",
	}, []string{
		opLabel,
		errTypeLabel,
	})

	boxesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "colliderbake_boxes_generated",
		Help: "The number of box colliders generated.",
	})

	assetDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "colliderbake_asset_duration_seconds",
		Help:    "The time to process one asset.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{
		opLabel,
	})
)

// ObserveAsset records the outcome of one asset edit.
func ObserveAsset(op string, err error, boxes int, elapsed time.Duration) {
	assetDuration.With(prometheus.Labels{
		opLabel: op,
	}).Observe(elapsed.Seconds())

	if err != nil {
		assetsProcessed.With(prometheus.Labels{
			opLabel:     op,
			resultLabel: resultFailure,
		}).Inc()
		assetErrors.With(prometheus.Labels{
			opLabel:      op,
			errTypeLabel: errors.Type(err),
		}).Inc()
		return
	}

	assetsProcessed.With(prometheus.Labels{
		opLabel:     op,
		resultLabel: resultSuccess,
	}).Inc()
	boxesGenerated.Add(float64(boxes))
}

// WriteTextfile writes every registered metric to path in the text
// exposition format read by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return errors.New("writing metrics failed").
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}
