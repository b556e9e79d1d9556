package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"media-cache/internal/logging"
)

const (
	// DefaultQuality is the WebP quality used when the config omits one.
	DefaultQuality = 85
	// DefaultMaxResolution caps derivative dimensions when the config omits one.
	DefaultMaxResolution = 1920

	configFileName = "config.toml"
)

// Config is a point-in-time snapshot of the service configuration.
type Config struct {
	CacheFolder         string   `mapstructure:"cache_folder"`
	OptimizationQuality int      `mapstructure:"optimization_quality"`
	MaxResolution       int      `mapstructure:"max_resolution"`
	LibraryFolders      []string `mapstructure:"library_folders"`
}

// Manager loads the configuration file and serializes mutations to it.
// Mutating methods persist immediately so the on-disk file is always the
// source of truth for which folders are registered.
type Manager struct {
	mu   sync.RWMutex
	v    *viper.Viper
	path string
	cfg  Config
}

// DefaultDir returns the user-scoped application directory, honoring the
// MEDIA_CACHE_DIR environment override.
func DefaultDir() (string, error) {
	if dir := os.Getenv("MEDIA_CACHE_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return filepath.Join(home, ".media-cache"), nil
}

// Load reads (or creates) the config file under dir.
func Load(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, configFileName)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault("cache_folder", filepath.Join(dir, "cache"))
	v.SetDefault("optimization_quality", DefaultQuality)
	v.SetDefault("max_resolution", DefaultMaxResolution)
	v.SetDefault("library_folders", []string{})

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		logging.Info("No config file at %s, writing defaults", path)
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	m := &Manager{v: v, path: path}
	if err := v.Unmarshal(&m.cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	m.clamp()

	logging.Info("Config loaded: cache=%s quality=%d maxres=%d folders=%d",
		m.cfg.CacheFolder, m.cfg.OptimizationQuality, m.cfg.MaxResolution, len(m.cfg.LibraryFolders))

	return m, nil
}

// clamp forces out-of-range values back to defaults.
func (m *Manager) clamp() {
	if m.cfg.OptimizationQuality < 1 || m.cfg.OptimizationQuality > 100 {
		logging.Warn("optimization_quality %d out of range, using %d", m.cfg.OptimizationQuality, DefaultQuality)
		m.cfg.OptimizationQuality = DefaultQuality
	}
	if m.cfg.MaxResolution < 1 {
		logging.Warn("max_resolution %d invalid, using %d", m.cfg.MaxResolution, DefaultMaxResolution)
		m.cfg.MaxResolution = DefaultMaxResolution
	}
}

// Snapshot returns a copy of the current configuration.
func (m *Manager) Snapshot() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := m.cfg
	cfg.LibraryFolders = append([]string(nil), m.cfg.LibraryFolders...)
	return cfg
}

// CacheFolder returns the base path for derivatives and thumbnails.
func (m *Manager) CacheFolder() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.CacheFolder
}

// Quality returns the configured optimization quality (1-100).
func (m *Manager) Quality() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.OptimizationQuality
}

// MaxResolution returns the configured maximum derivative dimension.
func (m *Manager) MaxResolution() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.MaxResolution
}

// IsLibraryFolder reports whether path is currently a registered library
// folder. The optimizer re-checks this before writing new cache entries.
func (m *Manager) IsLibraryFolder(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clean := filepath.Clean(path)
	for _, f := range m.cfg.LibraryFolders {
		if filepath.Clean(f) == clean {
			return true
		}
	}
	return false
}

// AddLibraryFolder registers a folder path and persists the change.
// Adding an already-registered path is a no-op.
func (m *Manager) AddLibraryFolder(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clean := filepath.Clean(path)
	for _, f := range m.cfg.LibraryFolders {
		if filepath.Clean(f) == clean {
			return nil
		}
	}
	m.cfg.LibraryFolders = append(m.cfg.LibraryFolders, clean)
	return m.saveLocked()
}

// RemoveLibraryFolder unregisters a folder path and persists the change.
func (m *Manager) RemoveLibraryFolder(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clean := filepath.Clean(path)
	kept := m.cfg.LibraryFolders[:0]
	for _, f := range m.cfg.LibraryFolders {
		if filepath.Clean(f) != clean {
			kept = append(kept, f)
		}
	}
	m.cfg.LibraryFolders = kept
	return m.saveLocked()
}

// SetCacheFolder changes the cache base path and persists the change.
func (m *Manager) SetCacheFolder(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg.CacheFolder = filepath.Clean(path)
	return m.saveLocked()
}

// saveLocked writes the current state back to the config file.
// Caller must hold mu.
func (m *Manager) saveLocked() error {
	m.v.Set("cache_folder", m.cfg.CacheFolder)
	m.v.Set("optimization_quality", m.cfg.OptimizationQuality)
	m.v.Set("max_resolution", m.cfg.MaxResolution)
	m.v.Set("library_folders", m.cfg.LibraryFolders)

	if err := m.v.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("failed to save config %s: %w", m.path, err)
	}
	return nil
}
