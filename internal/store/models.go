package store

import (
	"time"

	"media-cache/internal/mediatypes"
)

// LibraryFolder is a registered library root. Path is globally unique.
type LibraryFolder struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	FolderHash  string     `json:"folderHash"`
	AddedAt     time.Time  `json:"addedAt"`
	LastScanned *time.Time `json:"lastScanned,omitempty"`
	TotalFiles  int64      `json:"totalFiles"`
}

// CacheEntry links an original file's content hash to its derivative.
// (FolderID, FileHash) is unique; the same content under two different
// folders yields two entries.
type CacheEntry struct {
	ID           int64                `json:"id"`
	FolderID     int64                `json:"folderId"`
	OriginalPath string               `json:"originalPath"`
	FileHash     string               `json:"fileHash"`
	CachedPath   string               `json:"cachedPath"`
	MediaType    mediatypes.MediaType `json:"mediaType"`
	FileSize     int64                `json:"fileSize"`
	CachedSize   int64                `json:"cachedSize"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// CachedDerivative identifies a derivative file that existed for a folder
// before a delete, so the caller can remove the file and its thumbnail.
type CachedDerivative struct {
	CachedPath string `json:"cachedPath"`
	FileHash   string `json:"fileHash"`
}

// CacheStats aggregates the cache entry ledger.
type CacheStats struct {
	EntryCount   int64 `json:"entryCount"`
	OriginalSize int64 `json:"originalSize"`
	CachedSize   int64 `json:"cachedSize"`
}

// MediaRecord is the richer per-file metadata row, keyed by file path.
// It is independent of CacheEntry and used for fast library reload.
type MediaRecord struct {
	ID            int64                `json:"id"`
	FolderID      int64                `json:"folderId"`
	FilePath      string               `json:"filePath"`
	FileHash      string               `json:"fileHash"`
	FileSize      int64                `json:"fileSize"`
	Width         int                  `json:"width"`
	Height        int                  `json:"height"`
	TakenAt       *time.Time           `json:"takenAt,omitempty"`
	ModifiedAt    time.Time            `json:"modifiedAt"`
	ThumbnailPath string               `json:"thumbnailPath,omitempty"`
	MediaType     mediatypes.MediaType `json:"mediaType"`
	CreatedAt     time.Time            `json:"createdAt"`
}
