package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"media-cache/internal/logging"
	"media-cache/internal/mediatypes"
)

// CollectMediaPaths walks root and returns every media file path under
// it. Hidden files and directories are skipped. Unreadable entries are
// logged and skipped rather than failing the walk. With followSymlinks,
// symlinked directories are descended into once each; cycles are broken
// by tracking resolved targets.
func CollectMediaPaths(root string, followSymlinks bool) ([]string, error) {
	visited := make(map[string]bool)
	return collectMediaPaths(root, followSymlinks, visited)
}

func collectMediaPaths(root string, followSymlinks bool, visited map[string]bool) ([]string, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	if visited[resolved] {
		return nil, nil
	}
	visited[resolved] = true

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logging.Warn("Error accessing path %s: %v", path, walkErr)
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !followSymlinks {
				return nil
			}
			target, statErr := os.Stat(path)
			if statErr != nil {
				logging.Warn("Error resolving symlink %s: %v", path, statErr)
				return nil
			}
			if target.IsDir() {
				sub, subErr := collectMediaPaths(path, followSymlinks, visited)
				if subErr != nil {
					logging.Warn("Error walking symlinked directory %s: %v", path, subErr)
					return nil
				}
				paths = append(paths, sub...)
				return nil
			}
			if mediatypes.IsMediaFile(path) {
				paths = append(paths, path)
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if mediatypes.IsMediaFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return paths, nil
}

// CountMediaFiles returns the number of media files under root without
// reading any of them.
func CountMediaFiles(root string) (int64, error) {
	paths, err := CollectMediaPaths(root, false)
	if err != nil {
		return 0, err
	}
	return int64(len(paths)), nil
}
