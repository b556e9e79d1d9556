// Package scanner walks library folders and import sources. It builds
// per-file metadata records (size, hash, dimensions, capture time),
// flags import candidates that are already cached, evicts records for
// files that disappeared, and exposes a raw filesystem event stream for
// watched folders.
package scanner
