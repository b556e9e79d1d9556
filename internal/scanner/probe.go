package scanner

import (
	"fmt"
	"image"
	_ "image/gif"  // GIF dimension probing
	_ "image/jpeg" // JPEG dimension probing
	_ "image/png"  // PNG dimension probing
	"os"
	"time"

	_ "golang.org/x/image/webp" // WebP dimension probing

	"github.com/rwcarlsen/goexif/exif"

	"media-cache/internal/mediatypes"
)

// ProbeResult carries the metadata a probe could extract. Zero
// dimensions mean the probe could not determine them.
type ProbeResult struct {
	Width   int
	Height  int
	TakenAt *time.Time
}

// Prober extracts dimensions and capture time from a media file. It is
// an interface so scans can run in tests without decodable fixtures.
type Prober interface {
	Probe(path string, mediaType mediatypes.MediaType) (ProbeResult, error)
}

// DefaultProber decodes image headers with the stdlib registry and reads
// EXIF capture timestamps. Videos and undecodable formats (HEIC) probe
// to zero dimensions without error; missing metadata is not a failure.
type DefaultProber struct{}

// Probe implements Prober.
func (DefaultProber) Probe(path string, mediaType mediatypes.MediaType) (ProbeResult, error) {
	if mediaType != mediatypes.Image {
		return ProbeResult{}, nil
	}

	var result ProbeResult

	f, err := os.Open(path)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("failed to open %s for probing: %w", path, err)
	}

	if cfg, _, decErr := image.DecodeConfig(f); decErr == nil {
		result.Width = cfg.Width
		result.Height = cfg.Height
	}

	// EXIF lives near the start of the file; rewind and try.
	if _, seekErr := f.Seek(0, 0); seekErr == nil {
		if x, exifErr := exif.Decode(f); exifErr == nil {
			if taken, dtErr := x.DateTime(); dtErr == nil {
				result.TakenAt = &taken
			}
		}
	}

	if cerr := f.Close(); cerr != nil {
		return result, fmt.Errorf("failed to close %s after probing: %w", path, cerr)
	}
	return result, nil
}
