package optimizer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"media-cache/internal/logging"
)

// scaleFilter caps both dimensions at maxDim without upscaling or
// changing aspect ratio, then rounds down to even numbers for libx264.
func scaleFilter(maxDim int) string {
	return fmt.Sprintf(
		"scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease,scale=trunc(iw/2)*2:trunc(ih/2)*2",
		maxDim, maxDim)
}

// optimizeVideo transcodes one video to the capped-resolution H.264/AAC
// derivative. Returns ErrEncoderMissing when ffmpeg is not installed and
// an EncoderError with ffmpeg's stderr on a failed encode.
func optimizeVideo(ctx context.Context, srcPath, destPath string, maxDim int) error {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return ErrEncoderMissing
	}

	args := []string{
		"-y",
		"-i", srcPath,
		"-vf", scaleFilter(maxDim),
		"-c:v", "libx264",
		"-crf", "23",
		"-preset", "medium",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		destPath,
	}

	logging.Debug("Running ffmpeg for %s", srcPath)
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.Error("failed to remove partial derivative %s: %v", destPath, rmErr)
		}
		return &EncoderError{Path: srcPath, Stderr: stderr.String(), Err: err}
	}
	return nil
}
