// Package metrics defines the Prometheus collectors for the service and the
// handler that serves them. Collectors are registered once at init and
// incremented directly by the engine and API layers.
package metrics
