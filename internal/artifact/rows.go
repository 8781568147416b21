package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/mod/semver"

	"ci2/internal/fsutil"
)

// Row is one record keyed by header field.
type Row map[string]string

// Schema is a named, versioned CSV header.
type Schema struct {
	Name    string
	Version string
	Fields  []string
}

// StoriesSchema is the header of stories_*.csv data files.
var StoriesSchema = Schema{
	Name:    "stories",
	Version: "v1.0.0",
	Fields:  []string{"id", "firm", "month", "title", "source", "published_utc", "url", "snippet"},
}

// Tag renders the schema as name/version, e.g. stories/v1.0.0.
func (s Schema) Tag() string {
	return s.Name + "/" + s.Version
}

// Validate checks that the schema has fields and a semver tag.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: schema %q has no fields", ErrSchemaMismatch, s.Name)
	}
	if !semver.IsValid(s.Version) {
		return fmt.Errorf("%w: schema %q has invalid version %q", ErrSchemaMismatch, s.Name, s.Version)
	}
	return nil
}

// WriteRows writes header followed by one line per row. Every row is checked
// before anything is written: a key outside header fails with
// ErrSchemaMismatch, while header fields absent from a row are left empty.
func WriteRows(path string, header []string, rows []Row) error {
	if err := checkRows(header, rows); err != nil {
		return err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return writeErr("encode", path, err)
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, field := range header {
			record[i] = row[field]
		}
		if err := w.Write(record); err != nil {
			return writeErr("encode", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return writeErr("encode", path, err)
	}
	if err := EnsureDirectory(filepath.Dir(path)); err != nil {
		return err
	}
	if err := fsutil.CreateAtomic(path, buf.Bytes(), 0o644); err != nil {
		return writeErr("write", path, err)
	}
	return nil
}

// WriteSchemaRows is WriteRows with the fields of a validated schema.
func WriteSchemaRows(path string, schema Schema, rows []Row) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	return WriteRows(path, schema.Fields, rows)
}

func checkRows(header []string, rows []Row) error {
	if len(header) == 0 {
		return fmt.Errorf("%w: empty header", ErrSchemaMismatch)
	}
	allowed := make(map[string]struct{}, len(header))
	for _, f := range header {
		if _, dup := allowed[f]; dup {
			return fmt.Errorf("%w: duplicate header field %q", ErrSchemaMismatch, f)
		}
		allowed[f] = struct{}{}
	}
	for i, row := range rows {
		var extra []string
		for k := range row {
			if _, ok := allowed[k]; !ok {
				extra = append(extra, k)
			}
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			return fmt.Errorf("%w: row %d has fields not in header: %v", ErrSchemaMismatch, i, extra)
		}
	}
	return nil
}
