package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/mod/semver"

	"ci2/internal/fsutil"
)

// ManifestVersion is the schema tag stamped on every manifest written.
const ManifestVersion = "v1.0.0"

// Artifact kinds recorded in Manifest.Files.
const (
	KindStoriesCSV   = "stories_csv"
	KindManifestJSON = "manifest_json"
)

// Manifest describes what a single run produced and where.
type Manifest struct {
	SchemaVersion string            `json:"schema_version"`
	RunID         string            `json:"run_id"`
	Token         string            `json:"token"`
	Project       string            `json:"project"`
	Firm          string            `json:"firm"`
	Month         string            `json:"month"`
	CreatedUTC    time.Time         `json:"created_utc"`
	OutDir        string            `json:"out_dir"`
	Files         map[string]string `json:"files"`
	DataSchema    string            `json:"data_schema,omitempty"`
	Notes         string            `json:"notes"`
}

// Validate checks the required fields of m.
func (m Manifest) Validate() error {
	if !semver.IsValid(m.SchemaVersion) {
		return fmt.Errorf("%w: manifest schema_version %q is not a semver tag", ErrSchemaMismatch, m.SchemaVersion)
	}
	for _, f := range []struct{ name, value string }{
		{"token", m.Token},
		{"project", m.Project},
		{"month", m.Month},
		{"out_dir", m.OutDir},
	} {
		if f.value == "" {
			return fmt.Errorf("%w: manifest missing %s", ErrSchemaMismatch, f.name)
		}
	}
	if m.CreatedUTC.IsZero() {
		return fmt.Errorf("%w: manifest missing created_utc", ErrSchemaMismatch)
	}
	return nil
}

// WriteManifest encodes m as indented JSON and publishes it at path. Parent
// directories are created first. An existing file at path is never replaced.
func WriteManifest(path string, m Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	m.CreatedUTC = m.CreatedUTC.UTC()
	blob, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return writeErr("encode", path, err)
	}
	if err := EnsureDirectory(filepath.Dir(path)); err != nil {
		return err
	}
	if err := fsutil.CreateAtomic(path, append(blob, '\n'), 0o644); err != nil {
		return writeErr("write", path, err)
	}
	return nil
}

// ReadManifest decodes the manifest at path. Manifests written by a newer
// major schema version are rejected.
func ReadManifest(path string) (Manifest, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, err
		}
		return Manifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(blob, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: decode %s: %v", ErrSchemaMismatch, path, err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	if semver.Compare(semver.Major(m.SchemaVersion), semver.Major(ManifestVersion)) > 0 {
		return Manifest{}, fmt.Errorf("%w: %s has schema_version %s, newest supported is %s", ErrSchemaMismatch, path, m.SchemaVersion, ManifestVersion)
	}
	return m, nil
}

// ListManifests reads every manifest_*.json in dir, ordered by run token.
// A missing directory yields no manifests.
func ListManifests(dir string) ([]Manifest, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "manifest_*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	out := make([]Manifest, 0, len(paths))
	for _, p := range paths {
		m, err := ReadManifest(p)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
