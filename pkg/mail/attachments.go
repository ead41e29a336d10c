package mail

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const archiveName = "attachments.zip"

// packAttachments validates the attachment paths and, when there is more
// than one, zips them into a single archive. The returned cleanup removes
// the temporary archive and must always be called.
func packAttachments(paths []string) ([]string, func(), error) {
	noop := func() {}

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			zap.S().Warnf("Invalid attachment: %q", path)
			continue
		}
		files = append(files, path)
	}

	if len(files) <= 1 {
		return files, noop, nil
	}

	archivePath, err := zipFiles(files)
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() {
		_ = os.Remove(archivePath)
	}
	return []string{archivePath}, cleanup, nil
}

func zipFiles(files []string) (string, error) {
	zap.S().Debug("Archiving files...")

	archive, err := os.CreateTemp("", "hh-parser-*-"+archiveName)
	if err != nil {
		return "", errors.Wrap(err, "failed to create attachments archive")
	}
	defer func() {
		_ = archive.Close()
	}()

	writer := zip.NewWriter(archive)
	for _, file := range files {
		if err := addToZip(writer, file); err != nil {
			_ = writer.Close()
			_ = os.Remove(archive.Name())
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		_ = os.Remove(archive.Name())
		return "", errors.Wrap(err, "failed to finish attachments archive")
	}

	zap.S().Debug("Files successfully added to archive")
	return archive.Name(), nil
}

func addToZip(writer *zip.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open attachment %s", path)
	}
	defer func() {
		_ = file.Close()
	}()

	entry, err := writer.Create(filepath.Base(path))
	if err != nil {
		return errors.Wrapf(err, "failed to add %s to archive", path)
	}
	if _, err := io.Copy(entry, file); err != nil {
		return errors.Wrapf(err, "failed to write %s to archive", path)
	}
	return nil
}
