// Package metrics owns the Prometheus registry of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons for reservations_rejected_total.
const (
	ReasonValidation = "validation"
	ReasonSoldOut    = "sold_out"
	ReasonNotFound   = "not_found"
	ReasonInternal   = "internal"
	ReasonConflict   = "conflict"
)

// Metrics bundles all collectors.  A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	reg *prometheus.Registry

	RequestDuration      *prometheus.HistogramVec
	ReservationsCreated  prometheus.Counter
	ReservationsRejected *prometheus.CounterVec
	RateLimited          *prometheus.CounterVec
	EmailsSent           *prometheus.CounterVec
	GDPRRequests         *prometheus.CounterVec
}

// New creates a registry with process and Go collectors plus the service
// metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
		ReservationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "reservations_created_total",
			Help: "Total number of reservations created.",
		}),
		ReservationsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reservations_rejected_total",
			Help: "Total number of rejected reservation attempts.",
		}, []string{"reason"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Total number of requests blocked by the rate limiter.",
		}, []string{"route"}),
		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total number of emails handed to the SMTP relay.",
		}, []string{"template", "result"}),
		GDPRRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gdpr_requests_total",
			Help: "Total number of GDPR requests by operation.",
		}, []string{"operation"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

func (m *Metrics) ReservationCreated() {
	if m == nil {
		return
	}
	m.ReservationsCreated.Inc()
}

func (m *Metrics) ReservationRejected(reason string) {
	if m == nil {
		return
	}
	m.ReservationsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) RateLimitHit(route string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(route).Inc()
}

// EmailSent records one send attempt; result is "ok" or "error".
func (m *Metrics) EmailSent(template string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EmailsSent.WithLabelValues(template, result).Inc()
}

func (m *Metrics) GDPRRequest(operation string) {
	if m == nil {
		return
	}
	m.GDPRRequests.WithLabelValues(operation).Inc()
}
