package optimizer

import (
	"fmt"
	"os"
	"path/filepath"

	"media-cache/internal/hashing"
	"media-cache/internal/mediatypes"
)

// thumbnailMaxDim is the bounding box for generated thumbnails.
const thumbnailMaxDim = 300

// thumbnailQuality trades size for fidelity more aggressively than the
// main derivative; thumbnails are grid fodder.
const thumbnailQuality = 75

// GenerateThumbnail writes a small WebP preview for an image under the
// cache's thumbnails directory, named by the content hash's short id.
// An existing thumbnail is reused. Videos have no thumbnail here.
func (o *Optimizer) GenerateThumbnail(srcPath, fileHash string) (string, error) {
	mediaType, ok := mediatypes.FromPath(srcPath)
	if !ok || mediaType != mediatypes.Image {
		return "", nil
	}

	dir := filepath.Join(o.cfg.CacheFolder(), "thumbnails")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	thumbPath := filepath.Join(dir, hashing.ShortID(fileHash)+mediatypes.ThumbnailExt)
	if _, err := os.Stat(thumbPath); err == nil {
		return thumbPath, nil
	}

	img, err := decodeImage(srcPath)
	if err != nil {
		return "", err
	}
	if err := encodeWebP(fitWithin(img, thumbnailMaxDim), thumbPath, thumbnailQuality); err != nil {
		return "", err
	}
	return thumbPath, nil
}
