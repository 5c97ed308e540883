package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every metric exported by the tracker.
const Namespace = "wintracker"

// collectorSet fans Describe and Collect out to a fixed list of collectors,
// so a metrics group can be registered as a single prometheus.Collector.
type collectorSet []prometheus.Collector

func (s collectorSet) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range s {
		c.Describe(ch)
	}
}

func (s collectorSet) Collect(ch chan<- prometheus.Metric) {
	for _, c := range s {
		c.Collect(ch)
	}
}

// register adds the group to registry as one collector.
func register(registry prometheus.Registerer, set collectorSet) error {
	return registry.Register(set)
}
