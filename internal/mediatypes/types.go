package mediatypes

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MediaType classifies a library file. It is a closed enumeration:
// values persisted to the store must round-trip through Parse, so an
// unrecognized stored value surfaces instead of being silently accepted.
type MediaType string

const (
	// Image is a still image file.
	Image MediaType = "image"
	// Video is a video file.
	Video MediaType = "video"
)

// Parse converts a stored string into a MediaType.
func Parse(s string) (MediaType, error) {
	switch MediaType(strings.ToLower(s)) {
	case Image:
		return Image, nil
	case Video:
		return Video, nil
	default:
		return "", fmt.Errorf("unknown media type %q", s)
	}
}

// String returns the persisted form of the media type.
func (m MediaType) String() string {
	return string(m)
}

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".m4v":  true,
}

const (
	// OptimizedImageExt is the extension of optimized image derivatives.
	OptimizedImageExt = ".webp"
	// OptimizedVideoExt is the extension of optimized video derivatives.
	OptimizedVideoExt = ".mp4"
	// ThumbnailExt is the extension of generated thumbnails.
	ThumbnailExt = ".webp"
)

// FromPath returns the media type for a file path based on its extension.
// The second return value is false for non-media files.
func FromPath(path string) (MediaType, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ImageExtensions[ext] {
		return Image, true
	}
	if VideoExtensions[ext] {
		return Video, true
	}
	return "", false
}

// IsMediaFile returns true if the path has a supported media extension.
func IsMediaFile(path string) bool {
	_, ok := FromPath(path)
	return ok
}

// DerivativeExt returns the extension used for this type's optimized
// derivative files.
func (m MediaType) DerivativeExt() string {
	if m == Video {
		return OptimizedVideoExt
	}
	return OptimizedImageExt
}
