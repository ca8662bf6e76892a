// Package metrics owns the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the application collectors.  A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	OrdersTotal     *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop", Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shop", Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop", Name: "orders_total",
			Help: "Order placement attempts by outcome and payment kind.",
		}, []string{"outcome", "kind"}),
		GatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shop", Name: "payment_gateway_duration_seconds",
			Help:    "Payment gateway call latency.",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"result"}),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.OrdersTotal, m.GatewayDuration)
	return m
}

// ObserveOrder counts one order attempt.
func (m *Metrics) ObserveOrder(outcome, kind string) {
	if m == nil {
		return
	}
	m.OrdersTotal.WithLabelValues(outcome, kind).Inc()
}

// ObserveGateway records a gateway call latency.
func (m *Metrics) ObserveGateway(result string, seconds float64) {
	if m == nil {
		return
	}
	m.GatewayDuration.WithLabelValues(result).Observe(seconds)
}

// ObserveHTTP records a finished request.
func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}
