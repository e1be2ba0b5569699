// Package metrics provides the Prometheus registry and exposition handler
// for the Crunchbase client. Metrics themselves are defined with promauto in
// the packages that record them (client, pagination).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all client metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source scraped by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - crunchbase_requests_total{endpoint, status} (Counter): Page requests by endpoint and HTTP status
//   - crunchbase_request_duration_seconds{endpoint} (Histogram): Page request duration
//   - crunchbase_errors_total{kind} (Counter): Errors by kind (transport, status, decode)
//
// Pagination Metrics (pkg/pagination):
//   - crunchbase_pages_fetched_total{endpoint} (Counter): Pages stored in result slots
//   - crunchbase_fetch_duration_seconds{endpoint} (Histogram): Complete collection fetch duration
//   - crunchbase_fetch_failures_total{endpoint} (Counter): Collection fetches that returned an error
//   - crunchbase_active_workers (Gauge): Page workers currently running
//
// Example Prometheus Queries:
//
//   # Non-2xx share
//   sum(rate(crunchbase_errors_total{kind="status"}[5m])) / sum(rate(crunchbase_requests_total[5m]))
//
//   # P95 page latency
//   histogram_quantile(0.95, rate(crunchbase_request_duration_seconds_bucket[5m]))
//
//   # Pages per second per endpoint
//   rate(crunchbase_pages_fetched_total[1m])
