// Package workers sizes worker pools for parallel scanning and batch
// optimization based on available CPUs.
package workers
