// Package publish implements the durability boundary spec.md calls out as
// external to the core: "the rotation collaborator is responsible for
// fsync + rename to publish a sealed file" (spec.md §5, §9). The writer
// itself never fsyncs after AddEntry; once a caller decides a journal file
// is sealed (rotated, or closed for good), Seal gives it one idiomatic,
// atomic way to make that durable, grounded in distr1-distri's use of
// github.com/google/renameio for exactly this pattern.
package publish

import (
	"os"

	"github.com/google/renameio/v2"

	journalerrors "github.com/netdata/go-journalfile/pkg/errors"
)

// WriteFile atomically publishes data at path: it writes to a temporary
// file in the same directory, fsyncs it, and renames it into place, so a
// reader never observes a partially written file at path.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := renameio.WriteFile(path, data, perm); err != nil {
		return journalerrors.ClassifySyncError(err, path, path, int64(len(data)))
	}
	return nil
}

// Seal fsyncs an already-written journal file and renames it from a
// staging path to its final published path, atomically. This is the
// "rotation" boundary: the writer appends to stagingPath without further
// durability guarantees; Seal is the single point where the file becomes
// safe to hand to readers.
func Seal(stagingPath, finalPath string) error {
	f, err := os.OpenFile(stagingPath, os.O_RDWR, 0o644)
	if err != nil {
		return journalerrors.ClassifyFileOpenError(err, stagingPath, stagingPath)
	}
	defer f.Close()

	if err := f.Sync(); err != nil {
		return journalerrors.ClassifySyncError(err, stagingPath, stagingPath, 0)
	}

	if err := os.Rename(stagingPath, finalPath); err != nil {
		return journalerrors.ClassifySyncError(err, stagingPath, finalPath, 0)
	}

	return nil
}
