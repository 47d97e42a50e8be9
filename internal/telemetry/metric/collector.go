package metric

import "github.com/prometheus/client_golang/prometheus"

// KeyspaceCollector reports the keyspace size at scrape time.
type KeyspaceCollector struct {
	size func() int
	desc *prometheus.Desc
}

// NewKeyspaceCollector creates a collector that calls size on every scrape.
func NewKeyspaceCollector(size func() int) *KeyspaceCollector {
	return &KeyspaceCollector{
		size: size,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "keyspace", "keys"),
			"Number of stored keys, including expired keys not yet reclaimed.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *KeyspaceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *KeyspaceCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.size()))
}
