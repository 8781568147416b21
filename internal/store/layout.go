package store

import (
	"errors"
	"fmt"
	"os"
)

// ErrRootMissing is returned by EnsureLayout when the root itself is absent.
// The root is a mounted drive and is never created here.
var ErrRootMissing = errors.New("STORE_ROOT_MISSING")

// MissingDirs returns the entries of RequiredDirs that are not directories.
func MissingDirs(root string, projects []string) []string {
	var missing []string
	for _, d := range RequiredDirs(root, projects) {
		if !isDir(d) {
			missing = append(missing, d)
		}
	}
	return missing
}

// EnsureLayout creates the missing directories under an existing root and
// returns the ones it created.
func EnsureLayout(root string, projects []string) ([]string, error) {
	if !isDir(root) {
		return nil, fmt.Errorf("%w: %s", ErrRootMissing, root)
	}
	var created []string
	for _, d := range MissingDirs(root, projects) {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return created, fmt.Errorf("create %s: %w", d, err)
		}
		created = append(created, d)
	}
	return created, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
