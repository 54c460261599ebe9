package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metric family names.
const (
	RequestsTotal           = "mdrd_requests_total"
	ValidationFailuresTotal = "mdrd_validation_failures_total"
	EGFR                    = "mdrd_egfr"
)

// EGFRBuckets are the histogram upper bounds in mL/min/1.73m².
var EGFRBuckets = []float64{15, 30, 45, 60, 90}

// Registry holds the calculator metrics on a private Prometheus registry,
// so nothing from the global default registry leaks into /metrics.
// The zero value is not usable; call New.
type Registry struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	egfr     prometheus.Histogram
	handler  http.Handler
}

// New returns a Registry with all collectors registered.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RequestsTotal,
			Help: "Calculator requests by endpoint and HTTP status code.",
		}, []string{"endpoint", "code"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: ValidationFailuresTotal,
			Help: "Rejected input fields by field and violated constraint.",
		}, []string{"field", "constraint"}),
		egfr: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    EGFR,
			Help:    "Computed eGFR values in mL/min/1.73m².",
			Buckets: EGFRBuckets,
		}),
	}
	r.reg.MustRegister(r.requests, r.failures, r.egfr)
	r.handler = promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
	return r
}

// ObserveRequest counts one finished request on endpoint with status code.
func (r *Registry) ObserveRequest(endpoint string, code int) {
	r.requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// ObserveValidationFailure counts one rejected field.
func (r *Registry) ObserveValidationFailure(field, constraint string) {
	r.failures.WithLabelValues(field, constraint).Inc()
}

// ObserveEGFR records one computed result.
func (r *Registry) ObserveEGFR(v float64) {
	r.egfr.Observe(v)
}

// Gather returns the current metric families sorted by name. Counter
// families appear once they have a sample; the histogram is always present.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.reg.Gather()
}

// ServeHTTP writes all families in the exposition format negotiated from
// the Accept header.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.handler.ServeHTTP(w, req)
}
