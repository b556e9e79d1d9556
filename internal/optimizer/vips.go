package optimizer

import (
	"fmt"
	"image"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"media-cache/internal/logging"
)

var (
	vipsInitMutex   sync.Mutex
	vipsInitialized bool
	vipsAvailable   bool
)

// InitVips initializes libvips. Called once at startup; HEIC/HEIF decode
// falls back to vips when the pure-Go decoders cannot handle a file.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Route vips messages through our logger, filtered by our level.
	vipsLogLevel := vips.LogLevelWarning
	if logging.GetLevel() == logging.LevelDebug {
		vipsLogLevel = vips.LogLevelInfo
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level <= vips.LogLevelError:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// Conservative memory settings: one image at a time, small cache.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// decodeWithVips loads an image through libvips. Used for formats the
// pure-Go decoders reject, HEIC above all.
func decodeWithVips(path string) (image.Image, error) {
	vipsInitMutex.Lock()
	available := vipsAvailable
	vipsInitMutex.Unlock()
	if !available {
		return nil, fmt.Errorf("libvips not initialized, cannot decode %s", path)
	}

	ref, err := vips.NewImageFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load %s: %w", path, err)
	}
	defer ref.Close()

	img, err := ref.ToImage(vips.NewDefaultPNGExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to decode %s: %w", path, err)
	}
	return img, nil
}
