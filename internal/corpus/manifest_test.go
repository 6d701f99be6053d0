package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelabs/studymap/internal/store"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `source: neurosynth-2025
studies: data/studies.tsv
annotations: data/annotations.tsv
coordinates: data/coordinates.tsv
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, "neurosynth-2025", m.Source)
	assert.Equal(t, filepath.Join(dir, "data", "studies.tsv"), m.Studies)
	assert.Equal(t, filepath.Join(dir, "data", "annotations.tsv"), m.Annotations)
	assert.Equal(t, filepath.Join(dir, "data", "coordinates.tsv"), m.Coordinates)
}

func TestLoadManifest_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "")

	m, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, path, m.Source, "source defaults to the manifest path")
	assert.Equal(t, filepath.Join(dir, "studies.tsv"), m.Studies)
	assert.Equal(t, filepath.Join(dir, "annotations.tsv"), m.Annotations)
	assert.Equal(t, filepath.Join(dir, "coordinates.tsv"), m.Coordinates)
}

func TestLoadManifest_AbsolutePathKept(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere.tsv")
	path := writeManifest(t, dir, "studies: "+abs+"\n")

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, abs, m.Studies)
}

func TestLoadManifest_UnknownField(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "metadata: studies.tsv\n")

	_, err := LoadManifest(path)
	require.Error(t, err)

	var perr *ManifestParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), `unknown field "metadata"`)
	assert.Contains(t, perr.Error(), path)
}

func TestLoadManifest_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "source: [unclosed\n")

	_, err := LoadManifest(path)
	require.Error(t, err)

	var perr *ManifestParseError
	assert.ErrorAs(t, err, &perr)
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatchDirs(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	path := writeManifest(t, dir, "coordinates: "+filepath.Join(other, "coordinates.tsv")+"\n")

	w := NewWatcher(New(store.NewMemory(nil), nil), path, nil)
	dirs := w.watchDirs()

	assert.Equal(t, []string{dir, other}, dirs)
}
