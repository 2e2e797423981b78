package fetch

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// instrumentTransport wraps next with request metrics registered on reg.
// Clients sharing a registerer share its collectors.
func instrumentTransport(reg prometheus.Registerer, next http.RoundTripper) (http.RoundTripper, error) {
	inFlight, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signfetch_client_in_flight_requests",
		Help: "Number of requests currently in flight",
	}))
	if err != nil {
		return nil, err
	}

	requests, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signfetch_client_requests_total",
			Help: "Total requests sent by status code and method",
		},
		[]string{"code", "method"},
	))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signfetch_client_request_duration_seconds",
			Help:    "Request latency in seconds by method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	))
	if err != nil {
		return nil, err
	}

	return promhttp.InstrumentRoundTripperInFlight(inFlight,
		promhttp.InstrumentRoundTripperCounter(requests,
			promhttp.InstrumentRoundTripperDuration(duration, next),
		),
	), nil
}

// register adds c to reg, or returns the collector already registered
// under the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}

		var zero T
		return zero, err
	}

	return c, nil
}
