// Package artifact writes the per-run outputs of a collection: the JSON
// manifest and the CSV data file. Both are published atomically and never
// replace an existing file.
package artifact

import (
	"errors"
	"fmt"

	"ci2/internal/fsutil"
)

var (
	// ErrSchemaMismatch marks rows or manifests that do not fit the declared schema.
	ErrSchemaMismatch = errors.New("ART_SCHEMA_MISMATCH")
	// ErrWrite marks filesystem failures while producing artifacts.
	ErrWrite = errors.New("ART_WRITE")
)

// EnsureDirectory creates path and its missing parents. It is a no-op when
// the directory already exists.
func EnsureDirectory(path string) error {
	if err := fsutil.EnsureDir(path); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

func writeErr(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrWrite, op, path, err)
}
