package occache

// Sink is the telemetry abstraction occache's stats register themselves
// against. Grounded on OmniCache's perf-data client (monitoring/
// perf_data_client*.cc) reduced to the one capability that actually
// matters to a Go embedder: naming a gauge and a thunk that reads its
// current value on scrape, which is exactly prometheus.GaugeFunc's shape.
type Sink interface {
	RegisterMetric(name string, value func() float64)
}

// NopSink discards every registration; used when OC_PERF is disabled.
type NopSink struct{}

func (NopSink) RegisterMetric(string, func() float64) {}
