// Package optimizer produces content-addressed derivatives: lossy WebP
// re-encodes for images (libvips fallback for HEIC), capped-resolution
// H.264 transcodes for videos via ffmpeg, and small WebP thumbnails.
// Derivative filenames are the content hash's short id, so identical
// content always lands on the same path and is never re-encoded.
package optimizer
