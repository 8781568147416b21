package config

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
)

// ProjectKeys returns the configured project keys in sorted order.
func (d *Document) ProjectKeys() []string {
	if d == nil {
		return nil
	}
	keys := lo.Keys(d.Projects)
	sort.Strings(keys)
	return keys
}

// DriveRoot returns the absolute root location.
func (d *Document) DriveRoot() (string, error) {
	if d == nil || d.Root == nil {
		return "", fmt.Errorf("%w: %s missing top-level key: %s", ErrMissingSection, d.source(), SectionRoot)
	}
	if d.Root.DriveRoot == "" {
		return "", fmt.Errorf("%w: %s missing: %s.%s", ErrMissingSection, d.source(), SectionRoot, FieldDriveRoot)
	}
	root, err := ExpandPath(d.Root.DriveRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %s.%s %q: %v", ErrMissingSection, SectionRoot, FieldDriveRoot, d.Root.DriveRoot, err)
	}
	return root, nil
}

// ResolveProject maps a project key to its absolute db and outputs locations.
// Nothing is created or checked on disk.
func (d *Document) ResolveProject(project string) (ProjectPaths, error) {
	root, err := d.DriveRoot()
	if err != nil {
		return ProjectPaths{}, err
	}
	if d.Projects == nil {
		return ProjectPaths{}, fmt.Errorf("%w: %s missing top-level key: %s", ErrMissingSection, d.source(), SectionProjects)
	}
	entry, ok := d.Projects[project]
	if !ok {
		return ProjectPaths{}, &UnknownProjectError{Project: project, Valid: d.ProjectKeys()}
	}
	if entry.problem != "" {
		return ProjectPaths{}, fmt.Errorf("%w: invalid project config for %q (%s)", ErrInvalidProjectEntry, project, entry.problem)
	}
	for _, f := range []struct{ name, value string }{{FieldDB, entry.DB}, {FieldOutputs, entry.Outputs}} {
		if f.value == "" {
			return ProjectPaths{}, fmt.Errorf("%w: project %q missing %q in %s", ErrInvalidProjectEntry, project, f.name, d.source())
		}
	}
	return ProjectPaths{
		Project: project,
		DB:      joinRoot(root, entry.DB),
		Outputs: joinRoot(root, entry.Outputs),
	}, nil
}

// ResolveSecretsPath locates the secrets file. Precedence: the override
// variable verbatim, then keys.env_file (absolute, or relative to the drive
// root), then DefaultKeysFile. doc may be nil when the config could not be
// loaded. The returned file is not checked for existence.
func ResolveSecretsPath(doc *Document, getenv func(string) string) string {
	if getenv != nil {
		if override := getenv(EnvKeysFile); override != "" {
			return override
		}
	}
	if doc != nil && doc.Keys != nil && doc.Keys.EnvFile != "" {
		if filepath.IsAbs(doc.Keys.EnvFile) {
			return filepath.Clean(doc.Keys.EnvFile)
		}
		if root, err := doc.DriveRoot(); err == nil {
			return joinRoot(root, doc.Keys.EnvFile)
		}
	}
	return DefaultKeysFile
}

// joinRoot joins sub under root unless sub is already absolute.
func joinRoot(root, sub string) string {
	if filepath.IsAbs(sub) {
		return filepath.Clean(sub)
	}
	return filepath.Join(root, sub)
}

func (d *Document) source() string {
	if d == nil || d.Path == "" {
		return "paths config"
	}
	return filepath.Base(d.Path)
}
