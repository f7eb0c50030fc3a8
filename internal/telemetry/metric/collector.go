package metric

import "github.com/prometheus/client_golang/prometheus"

// EngineStats is a point-in-time sample of storage engine statistics.
type EngineStats struct {
	TotalSupply   float64
	NextTxid      float64
	WALSizeBytes  float64
	SnapshotCount float64
}

// EngineStatsFunc samples the engine. Called on every scrape.
type EngineStatsFunc func() EngineStats

// EngineCollector exposes engine statistics as gauges without
// keeping its own state.
type EngineCollector struct {
	fn EngineStatsFunc

	descSupply    *prometheus.Desc
	descTxid      *prometheus.Desc
	descWALSize   *prometheus.Desc
	descSnapshots *prometheus.Desc
}

// NewEngineCollector creates a collector over the sampling function.
func NewEngineCollector(fn EngineStatsFunc) *EngineCollector {
	return &EngineCollector{
		fn: fn,
		descSupply: prometheus.NewDesc(
			namespace+"_registry_total_supply",
			"Minted tokens, burned included", nil, nil),
		descTxid: prometheus.NewDesc(
			namespace+"_registry_next_txid",
			"Next transaction id to be assigned", nil, nil),
		descWALSize: prometheus.NewDesc(
			namespace+"_wal_size_bytes",
			"Total size of WAL segments on disk", nil, nil),
		descSnapshots: prometheus.NewDesc(
			namespace+"_snapshot_count",
			"Snapshot files currently retained", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *EngineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.descSupply
	ch <- c.descTxid
	ch <- c.descWALSize
	ch <- c.descSnapshots
}

// Collect implements prometheus.Collector.
func (c *EngineCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.fn()
	ch <- prometheus.MustNewConstMetric(c.descSupply, prometheus.GaugeValue, st.TotalSupply)
	ch <- prometheus.MustNewConstMetric(c.descTxid, prometheus.GaugeValue, st.NextTxid)
	ch <- prometheus.MustNewConstMetric(c.descWALSize, prometheus.GaugeValue, st.WALSizeBytes)
	ch <- prometheus.MustNewConstMetric(c.descSnapshots, prometheus.GaugeValue, st.SnapshotCount)
}
