package gatewaysvc

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/masomo-console/core"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "masomo",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Gateway calls by resource, operation and outcome.",
		}, []string{"resource", "op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "masomo",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "op"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering gateway metrics")
		}
	}
	return m, nil
}

// observe records one call. outcome is "ok" or the error kind.
func (m *metrics) observe(resource, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = core.KindOf(err).String()
	}
	m.requests.WithLabelValues(resource, op, outcome).Inc()
	m.duration.WithLabelValues(resource, op).Observe(time.Since(start).Seconds())
}
