// Package metric provides Prometheus metrics for the registry.
//
// It holds the operation counters, the HTTP duration histogram, and a
// custom collector that pulls supply, WAL and snapshot statistics
// from the storage engine on scrape. Metrics are exposed at /metrics
// in Prometheus format.
package metric
