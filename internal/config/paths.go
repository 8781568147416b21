package config

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	// EnvHome points at the installation root holding config/paths.yaml.
	EnvHome = "CI2_HOME"
	// EnvKeysFile overrides the secrets file location.
	EnvKeysFile = "CI2_KEYS_ENV"

	// DefaultKeysFile is used when neither the override nor keys.env_file is set.
	DefaultKeysFile = "/content/drive/MyDrive/CI2/ci2_keys.env"
	// DefaultDriveRoot is checked by the readiness gate when no config loads.
	DefaultDriveRoot = "/content/drive/MyDrive/CI2"
)

// DefaultConfigPath returns <install root>/config/paths.yaml. The install root
// is $CI2_HOME when set, otherwise the working directory.
func DefaultConfigPath() string {
	root := os.Getenv(EnvHome)
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}
		root = cwd
	}
	return filepath.Join(root, "config", "paths.yaml")
}

// ExpandPath expands a leading ~ and returns a cleaned absolute path.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}
