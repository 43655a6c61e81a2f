package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	PagesFetched        *prometheus.CounterVec
	DimensionsFinished  *prometheus.CounterVec
	EmployeesFound      prometheus.Counter
	ScrapesTotal        *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg; pass prometheus.DefaultRegisterer
// to expose them on /metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staffscout_pages_fetched_total",
			Help: "The total number of search result pages fetched",
		}, []string{"dimension_kind"}),
		DimensionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staffscout_dimensions_finished_total",
			Help: "Search dimensions finished, by the reason the page loop stopped",
		}, []string{"reason"}), // 'rate_limited', 'empty', 'depth', 'error'
		EmployeesFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "staffscout_employees_found_total",
			Help: "The total number of employee records parsed",
		}),
		ScrapesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staffscout_scrapes_total",
			Help: "Scrape invocations by final status",
		}, []string{"status"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staffscout_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g., 'lookup_failed', 'db_save_failed'
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: []float64{.05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) IncPagesFetched(kind string) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncDimensionsFinished(reason string) {
	if m == nil {
		return
	}
	m.DimensionsFinished.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddEmployeesFound(n int) {
	if m == nil {
		return
	}
	m.EmployeesFound.Add(float64(n))
}

func (m *Metrics) IncScrapesTotal(status string) {
	if m == nil {
		return
	}
	m.ScrapesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncErrorsTotal(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}
