package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by its middleware.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	redirects *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
//
//	m, err := middleware.NewMetrics(prometheus.DefaultRegisterer, "tempdata")
//	a.Use(m.Middleware())
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Handled requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Handler latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tempdata",
			Name:      "redirects_total",
			Help:      "Redirects issued through the dispatcher by route and status.",
		}, []string{"route", "status"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration, m.redirects} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware records one observation per request.
func (m *Metrics) Middleware() app.Middleware {
	return func(next app.Handler) app.Handler {
		return func(c ctx.Ctx) error {
			start := time.Now()
			err := next(c)

			status := c.StatusCode()
			var sig redirectSignal
			if errors.As(err, &sig) && !c.WroteHeader() {
				status = sig.StatusCode()
				m.redirects.WithLabelValues(c.Route(), strconv.Itoa(status)).Inc()
			}
			if status == 0 {
				status = 200
				if err != nil {
					status = 500
				}
			}
			m.requests.WithLabelValues(c.Method(), c.Route(), strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(c.Method(), c.Route()).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
