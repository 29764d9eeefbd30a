// Package assets discovers the local build artifacts to upload.
package assets

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"static-deploy/models"
)

// Discoverer walks a local build directory for asset files.
type Discoverer struct {
	Dir string
}

// NewDiscoverer returns a discoverer rooted at the build directory dir.
func NewDiscoverer(dir string) *Discoverer {
	return &Discoverer{Dir: dir}
}

// Discover returns the asset files under the build directory in walk order
// (lexical, deterministic). Files whose name contains "test-" are fixtures,
// not assets, and are excluded.
func (d *Discoverer) Discover() ([]models.AssetFile, error) {
	var files []models.AssetFile

	err := filepath.WalkDir(d.Dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.Contains(entry.Name(), "test-") {
			return nil
		}
		rel, err := filepath.Rel(d.Dir, p)
		if err != nil {
			return err
		}
		files = append(files, models.AssetFile{
			Path:   filepath.ToSlash(rel),
			Source: p,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not scan build directory %s: %w", d.Dir, err)
	}

	return files, nil
}
