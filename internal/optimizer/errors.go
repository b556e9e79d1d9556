package optimizer

import (
	"errors"
	"fmt"
)

// ErrEncoderMissing is returned when video optimization is requested but
// no ffmpeg binary is on the PATH.
var ErrEncoderMissing = errors.New("ffmpeg not found in PATH")

// ErrFolderRemoved is returned when a file's folder was unregistered
// between the request and the optimization. The derivative is not
// written; nothing may repopulate a removed folder's cache.
var ErrFolderRemoved = errors.New("folder no longer registered")

// ErrUnsupportedFile is returned for paths without a recognized media
// extension.
var ErrUnsupportedFile = errors.New("unsupported media file")

// EncoderError carries ffmpeg's diagnostics when an encode fails.
type EncoderError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *EncoderError) Error() string {
	return fmt.Sprintf("ffmpeg failed for %s: %v: %s", e.Path, e.Err, e.Stderr)
}

func (e *EncoderError) Unwrap() error {
	return e.Err
}
