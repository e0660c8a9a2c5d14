// Package metrics records packaging outcomes.
//
// Prom keeps its own Prometheus registry so several runs (and tests) never
// collide on the default registerer, and can dump it in the node-exporter
// textfile format for CI runners.
package metrics
