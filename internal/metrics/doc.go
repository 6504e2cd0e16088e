// Package metrics exposes the block watch and chip programmer counters.
//
// Services depend on the Collector interface; NewPrometheusCollector backs it
// with metrics registered on a caller-owned prometheus.Registerer and Noop
// discards everything.
package metrics
