// Package promsink implements occache.Sink on top of a Prometheus
// registry, grounded on how ClusterCockpit-cc-backend wires its own
// gauges (prometheus/client_golang) into an HTTP exposition endpoint.
package promsink

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namePrefix = "occache"

// Sink registers occache's counters as prometheus.GaugeFunc values on a
// caller-supplied registry. A name like "/oc/skiplist/length_" becomes
// the metric occache_skiplist_length.
type Sink struct {
	reg *prometheus.Registry
}

func New(reg *prometheus.Registry) *Sink {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Sink{reg: reg}
}

func (s *Sink) Registry() *prometheus.Registry {
	return s.reg
}

func (s *Sink) RegisterMetric(name string, value func() float64) {
	metricName := sanitizeName(name)
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: metricName,
		Help: "occache skiplist statistic " + name,
	}, value)
	// Re-registering the same collector panics; occache only registers
	// each counter once at construction, so this should never trip, but
	// a second NewIndex against the same registry (e.g. in tests) would —
	// tolerate that by ignoring AlreadyRegisteredError rather than
	// panicking on a harmless double-registration.
	if err := s.reg.Register(gauge); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}

func sanitizeName(path string) string {
	trimmed := strings.TrimPrefix(strings.Trim(path, "/"), "oc/")
	parts := strings.Split(trimmed, "/")
	joined := strings.Join(parts, "_")
	joined = strings.TrimSuffix(joined, "_")
	return namePrefix + "_" + joined
}
