package httpclient

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog_client",
			Name:      "requests_total",
			Help:      "API requests issued, by backend, method and outcome.",
		},
		[]string{"backend", "method", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "catalog_client",
			Name:      "request_duration_seconds",
			Help:      "Wall time of API requests including decode.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "method"},
	)
)

func observeRequest(backend, method string, start time.Time, err error) {
	requestsTotal.WithLabelValues(backend, method, outcome(err)).Inc()
	requestDuration.WithLabelValues(backend, method).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	var (
		transportErr *TransportError
		statusErr    *StatusError
		decodeErr    *DecodeError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.As(err, &statusErr):
		return "status_error"
	case errors.As(err, &decodeErr):
		return "decode_error"
	default:
		return "error"
	}
}
