package optimizer

import (
	"fmt"
	"image"
	"os"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"media-cache/internal/logging"
)

// decodeImage opens and orients an image, falling back to libvips for
// formats the pure-Go decoders cannot handle (HEIC/HEIF).
func decodeImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	logging.Debug("Pure-Go decode failed for %s (%v), trying libvips", path, err)
	img, vipsErr := decodeWithVips(path)
	if vipsErr != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// fitWithin downscales img so neither dimension exceeds maxDim. Images
// already within bounds pass through untouched; nothing is ever upscaled.
func fitWithin(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// encodeWebP writes img to destPath as lossy WebP at the given quality.
func encodeWebP(img image.Image, destPath string, quality int) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	if err := webp.Encode(f, img, &webp.Options{Lossless: false, Quality: float32(quality)}); err != nil {
		if cerr := f.Close(); cerr != nil {
			logging.Error("failed to close %s after encode error: %v", destPath, cerr)
		}
		if rmErr := os.Remove(destPath); rmErr != nil {
			logging.Error("failed to remove partial derivative %s: %v", destPath, rmErr)
		}
		return fmt.Errorf("failed to encode %s: %w", destPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", destPath, err)
	}
	return nil
}

// optimizeImage produces the WebP derivative for one image file.
func optimizeImage(srcPath, destPath string, maxDim, quality int) error {
	img, err := decodeImage(srcPath)
	if err != nil {
		return err
	}
	return encodeWebP(fitWithin(img, maxDim), destPath, quality)
}
