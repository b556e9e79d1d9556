// Package handlers exposes the cache core as a local JSON/HTTP API:
// folder registration, dedup lookups, cache statistics and cleanup,
// task control, single and batch optimization, scanning, importing and
// media metadata access.
package handlers
