// Package metrics colectores Prometheus del servicio sobre un registro propio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resultados de un job del canal de auditoría.
const (
	ResultOK    = "ok"
	ResultRetry = "reintento"
	ResultError = "error"
	ResultDLQ   = "dlq"
)

// Metrics todos los métodos aceptan receptor nil (métricas deshabilitadas).
type Metrics struct {
	reg *prometheus.Registry

	jobsEnqueued  *prometheus.CounterVec
	jobsProcessed *prometheus.CounterVec
	queueRejected prometheus.Counter

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		jobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "concesionaria_jobs_encolados_total",
			Help: "Jobs de auditoría y alertas encolados.",
		}, []string{"tipo"}),
		jobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "concesionaria_jobs_procesados_total",
			Help: "Jobs procesados por tipo y resultado.",
		}, []string{"tipo", "resultado"}),
		queueRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "concesionaria_jobs_rechazados_total",
			Help: "Jobs descartados por cola llena o cerrada.",
		}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
	m.reg.MustRegister(
		m.jobsEnqueued, m.jobsProcessed, m.queueRejected,
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler expone el registro en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry para pruebas y colectores externos.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) JobEnqueued(jobType string) {
	if m == nil {
		return
	}
	m.jobsEnqueued.WithLabelValues(jobType).Inc()
}

func (m *Metrics) JobDone(jobType, result string) {
	if m == nil {
		return
	}
	m.jobsProcessed.WithLabelValues(jobType, result).Inc()
}

func (m *Metrics) JobRejected() {
	if m == nil {
		return
	}
	m.queueRejected.Inc()
}

// RequestStarted marca una petición en curso; el func devuelto la cierra.
func (m *Metrics) RequestStarted() func(method, path string, status int) {
	if m == nil {
		return func(string, string, int) {}
	}
	m.httpInFlight.Inc()
	start := time.Now()
	return func(method, path string, status int) {
		s := strconv.Itoa(status)
		m.httpRequestDuration.WithLabelValues(method, path, s).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(method, path, s).Inc()
		m.httpInFlight.Dec()
	}
}
