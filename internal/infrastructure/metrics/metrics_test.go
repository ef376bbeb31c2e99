package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestJobs(t *testing.T) {
	m := New()

	m.JobEnqueued("auditoria")
	m.JobEnqueued("auditoria")
	m.JobDone("auditoria", ResultOK)
	m.JobDone("alerta", ResultDLQ)
	m.JobRejected()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.jobsEnqueued.WithLabelValues("auditoria")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobsProcessed.WithLabelValues("auditoria", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobsProcessed.WithLabelValues("alerta", ResultDLQ)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueRejected))
}

func TestRequestStarted(t *testing.T) {
	m := New()

	done := m.RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	done("GET", "/api/minutas", 200)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/minutas", "200")))
}

func TestHandler_Exposicion(t *testing.T) {
	m := New()
	m.JobDone("navegacion", ResultError)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(body, `concesionaria_jobs_procesados_total{resultado="error",tipo="navegacion"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func TestNil_NoPanica(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.JobEnqueued("x")
		m.JobDone("x", ResultOK)
		m.JobRejected()
		m.RequestStarted()("GET", "/", 200)
		_ = m.Handler()
	})
}
