// Package store is the durable source of truth for the media cache: it
// registers library folders, keeps the content-hash to derivative-path
// ledger, and holds per-file media metadata for fast library reload.
//
// The store answers "is this content already cached" but never touches
// derivative files itself; delete operations return the affected
// (cachedPath, fileHash) pairs and the caller removes the files.
package store
