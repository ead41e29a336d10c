package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MaxReportAge is how long generated report files are kept in the temp
// directory before cleanup removes them.
const MaxReportAge = 30 * 24 * time.Hour

// RemoveOldFiles deletes regular files in dir older than maxAge and
// returns how many were removed. A missing directory is not an error.
func RemoveOldFiles(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	deadline := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(deadline) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			zap.S().Warnf("Failed to remove old file %s: %v", path, err)
			continue
		}
		zap.S().Debugf("Removed old file %s", path)
		removed++
	}
	if removed > 0 {
		zap.S().Infof("Removed %d old files from %s", removed, dir)
	}
	return removed, nil
}
