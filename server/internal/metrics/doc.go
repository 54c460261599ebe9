// Package metrics records calculator activity and renders it in the
// Prometheus exposition format.
//
// Registry keeps three families:
//
//	mdrd_requests_total{endpoint,code}                counter
//	mdrd_validation_failures_total{field,constraint}  counter
//	mdrd_egfr                                         histogram
//
// The histogram buckets are the CKD stage cut-offs (15, 30, 45, 60, 90).
// The collectors live on a private prometheus.Registry and are served by
// promhttp, which negotiates the format from the request's Accept header.
package metrics
