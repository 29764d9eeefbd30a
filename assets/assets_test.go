package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
}

func TestDiscoverWalksBuildTree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html")
	writeFile(t, dir, "css/site.css")
	writeFile(t, dir, "js/app.js")

	files, err := NewDiscoverer(dir).Discover()
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"index.html", "css/site.css", "js/app.js"}, paths)

	for _, f := range files {
		assert.FileExists(t, f.Source)
	}
}

func TestDiscoverExcludesTestFixtures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js")
	writeFile(t, dir, "test-data.json")
	writeFile(t, dir, "fixtures/test-page.html")
	writeFile(t, dir, "protest.js") // "test-" must appear in the name itself

	files, err := NewDiscoverer(dir).Discover()
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"app.js", "protest.js"}, paths)
}

func TestDiscoverDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.js")
	writeFile(t, dir, "a.js")
	writeFile(t, dir, "c.js")

	first, err := NewDiscoverer(dir).Discover()
	require.NoError(t, err)
	second, err := NewDiscoverer(dir).Discover()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "a.js", first[0].Path)
}

func TestDiscoverMissingDirectory(t *testing.T) {
	_, err := NewDiscoverer(filepath.Join(t.TempDir(), "missing")).Discover()
	assert.Error(t, err)
}
