package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveOldFiles(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "old.xlsx")
	require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
	oldTime := time.Now().Add(-40 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	freshFile := filepath.Join(dir, "fresh.xlsx")
	require.NoError(t, os.WriteFile(freshFile, []byte("fresh"), 0o644))

	removed, err := RemoveOldFiles(dir, MaxReportAge)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, freshFile)
}

func TestRemoveOldFilesMissingDirectory(t *testing.T) {
	removed, err := RemoveOldFiles(filepath.Join(t.TempDir(), "missing"), MaxReportAge)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
