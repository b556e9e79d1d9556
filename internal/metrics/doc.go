// Package metrics declares the Prometheus instruments exported by the
// media cache service.
package metrics
