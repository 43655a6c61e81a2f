package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncPagesFetched("geo")
		m.IncDimensionsFinished("empty")
		m.AddEmployeesFound(3)
		m.IncScrapesTotal("completed")
		m.IncErrorsTotal("lookup_failed")
		m.ObserveHTTPRequest("GET", "/api/health", "200", 0.01)
	})
}

func TestMetricsRegisterOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.IncPagesFetched("keyword")
	m.IncPagesFetched("keyword")
	m.AddEmployeesFound(5)
	m.ObserveHTTPRequest("POST", "/api/scrape", "200", 1.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesFetched.WithLabelValues("keyword")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.EmployeesFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/scrape", "200")))

	// a second set on a fresh registry must not collide
	assert.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}
