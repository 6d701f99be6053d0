// Package corpus loads study corpora described by a YAML manifest into
// a store and keeps them fresh while serving.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest describes a corpus on disk: a source label and the three
// tab-separated data files. Relative paths resolve against the
// manifest's directory.
type Manifest struct {
	Source      string `yaml:"source"`
	Studies     string `yaml:"studies"`
	Annotations string `yaml:"annotations"`
	Coordinates string `yaml:"coordinates"`
}

// LoadManifest reads and parses a corpus manifest. Unknown fields cause
// parse errors. Paths are returned resolved and defaulted.
func LoadManifest(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	manifest, err := parseManifestYAML(content)
	if err != nil {
		if perr, ok := err.(*ManifestParseError); ok {
			perr.File = path
		}
		return nil, err
	}

	manifest.ApplyDefaults(path)
	return manifest, nil
}

// knownManifestFields rejects typos early (use exact field names).
var knownManifestFields = map[string]bool{
	"source":      true,
	"studies":     true,
	"annotations": true,
	"coordinates": true,
}

// parseManifestYAML parses manifest content with strict field validation.
func parseManifestYAML(content []byte) (*Manifest, error) {
	var rawMap map[string]any
	if err := yaml.Unmarshal(content, &rawMap); err != nil {
		return nil, &ManifestParseError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	for field := range rawMap {
		if !knownManifestFields[field] {
			return nil, &ManifestParseError{
				Message: fmt.Sprintf("unknown field %q in manifest", field),
			}
		}
	}

	var manifest Manifest
	if err := yaml.Unmarshal(content, &manifest); err != nil {
		return nil, &ManifestParseError{
			Message: fmt.Sprintf("failed to parse manifest: %v", err),
		}
	}
	return &manifest, nil
}

// ApplyDefaults fills missing fields from the manifest's own location
// and resolves relative data paths against its directory.
func (m *Manifest) ApplyDefaults(manifestPath string) {
	dir := filepath.Dir(manifestPath)

	if m.Source == "" {
		m.Source = manifestPath
	}
	if m.Studies == "" {
		m.Studies = "studies.tsv"
	}
	if m.Annotations == "" {
		m.Annotations = "annotations.tsv"
	}
	if m.Coordinates == "" {
		m.Coordinates = "coordinates.tsv"
	}

	m.Studies = resolvePath(dir, m.Studies)
	m.Annotations = resolvePath(dir, m.Annotations)
	m.Coordinates = resolvePath(dir, m.Coordinates)
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// ManifestParseError represents a manifest parsing error.
type ManifestParseError struct {
	File    string
	Message string
}

func (e *ManifestParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}
