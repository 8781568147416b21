package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load reads and decodes the paths document at path. The file is read on
// every call; nothing is cached between calls.
func Load(path string) (*Document, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: missing config file: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfigMalformed, path, err)
	}
	raw, err := decodeRaw(path, data)
	if err != nil {
		return nil, err
	}
	doc := fromRaw(raw)
	doc.Path = path
	return doc, nil
}

func decodeRaw(path string, data []byte) (map[string]any, error) {
	var top any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrConfigMalformed, path, err)
		}
		top = m
	default:
		if err := yaml.Unmarshal(data, &top); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrConfigMalformed, path, err)
		}
	}
	if top == nil {
		return map[string]any{}, nil
	}
	m, ok := asMap(top)
	if !ok {
		return nil, fmt.Errorf("%w: invalid structure in %s (expected a mapping at top level)", ErrConfigMalformed, path)
	}
	return m, nil
}

func fromRaw(raw map[string]any) *Document {
	doc := &Document{}
	if sec, ok := asMap(raw[SectionRoot]); ok {
		doc.Root = &RootSection{DriveRoot: asString(sec[FieldDriveRoot])}
	}
	if sec, ok := asMap(raw[SectionProjects]); ok {
		doc.Projects = make(map[string]ProjectEntry, len(sec))
		for key, v := range sec {
			entry, ok := asMap(v)
			if !ok {
				doc.Projects[key] = ProjectEntry{problem: "expected a mapping"}
				continue
			}
			doc.Projects[key] = ProjectEntry{
				DB:      asString(entry[FieldDB]),
				Outputs: asString(entry[FieldOutputs]),
			}
		}
	}
	if sec, ok := asMap(raw[SectionKeys]); ok {
		doc.Keys = &KeysSection{EnvFile: asString(sec[FieldEnvFile])}
	}
	if sec, ok := asMap(raw[SectionLogging]); ok {
		doc.Logging = LoggingSection{
			Level:  asString(sec["level"]),
			Format: asString(sec["format"]),
		}
	}
	return doc
}

// asMap accepts both decoder shapes for mappings: yaml.v3 produces
// map[string]any for string keys and map[any]any otherwise.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
