// Package middleware provides HTTP request logging and Prometheus
// metrics wrappers for the boundary API.
package middleware
