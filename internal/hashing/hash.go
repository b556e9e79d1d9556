package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// chunkSize is the read buffer used when streaming file contents.
const chunkSize = 64 * 1024

// ShortIDLength is the number of hex characters used for cache filenames.
// The full hash stays in the store; the short name is a file-level
// convenience only.
const ShortIDLength = 16

// HashFile streams the file at path through SHA-256 and returns the
// lowercase hex digest. The result depends only on the file's bytes.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Read-only handle, nothing actionable beyond noting it.
			_ = cerr
		}
	}()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("failed to read %s while hashing: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// ShortID returns the fixed-length prefix of a content hash used for
// derivative filenames.
func ShortID(fullHash string) string {
	if len(fullHash) <= ShortIDLength {
		return fullHash
	}
	return fullHash[:ShortIDLength]
}

// FolderHash returns a deterministic hash of a folder's canonical path,
// used as a stable secondary key for registered library folders.
func FolderHash(path string) string {
	canonical := filepath.Clean(path)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
