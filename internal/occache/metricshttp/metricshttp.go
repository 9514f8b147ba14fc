// Package metricshttp exposes occache's Prometheus registry over HTTP.
// Cache does not call it or start a server itself.
// Grounded on ClusterCockpit-cc-backend's metric router, which also
// pairs gorilla/mux with the Prometheus exposition handler.
package metricshttp

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter returns a mux.Router serving reg's metrics at /metrics, the
// path OC_PERFSERVER's listen address is expected to expose (SPEC_FULL.md
// domain stack).
func NewRouter(reg *prometheus.Registry) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return router
}
