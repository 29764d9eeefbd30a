// Package uploader pushes new revisions and bulk assets to the remote host.
package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"golang.org/x/sync/errgroup"

	"static-deploy/logger"
	"static-deploy/models"
	"static-deploy/transport"
)

// UploadError means an entry, metadata or asset write failed.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("could not upload file %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// MetadataSource produces the metadata for a new revision. gitrev.Source is
// the production implementation.
type MetadataSource interface {
	Generate(ctx context.Context, revision string) (models.RevisionMetadata, error)
}

// AssetSource lists the local asset files to upload. assets.Discoverer is
// the production implementation.
type AssetSource interface {
	Discover() ([]models.AssetFile, error)
}

// AssetResult is the outcome of one asset file's upload attempt.
type AssetResult struct {
	Path string
	Err  error
}

// Uploader sequences revision and asset uploads over one transport.
type Uploader struct {
	t        transport.Transport
	dir      string // revision directory
	rootDir  string // remote root holding assets/
	metadata MetadataSource
	assets   AssetSource
	log      *logger.Logger
}

// New returns an uploader writing revisions below dir and assets below
// rootDir/assets.
func New(t transport.Transport, dir, rootDir string, metadata MetadataSource, assets AssetSource, log *logger.Logger) *Uploader {
	return &Uploader{t: t, dir: dir, rootDir: rootDir, metadata: metadata, assets: assets, log: log}
}

// Upload creates a new revision from the entry file bytes: it generates the
// revision metadata, creates the revision directory, then writes the entry
// file and the metadata document concurrently. Both writes must succeed;
// there is no ordering between them and no rollback of the directory on
// failure (retention cleans stragglers up). revision may be empty, in which
// case the id comes from a fresh deploy tag.
func (u *Uploader) Upload(ctx context.Context, entry []byte, revision string) (models.RevisionMetadata, error) {
	meta, err := u.metadata.Generate(ctx, revision)
	if err != nil {
		return models.RevisionMetadata{}, err
	}

	revDir := path.Join(u.dir, meta.Revision)
	if err := u.t.MkdirAll(ctx, revDir); err != nil {
		return models.RevisionMetadata{}, &UploadError{Path: revDir, Err: err}
	}

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return models.RevisionMetadata{}, &UploadError{Path: revDir, Err: err}
	}

	entryPath := path.Join(revDir, models.EntryFilename)
	metaPath := path.Join(revDir, models.MetadataFilename)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := u.t.WriteFile(gctx, entryPath, entry); err != nil {
			return &UploadError{Path: entryPath, Err: err}
		}
		return nil
	})
	g.Go(func() error {
		if err := u.t.WriteFile(gctx, metaPath, metaJSON); err != nil {
			return &UploadError{Path: metaPath, Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.RevisionMetadata{}, err
	}

	u.log.Info("uploaded revision", "revision", meta.Revision, "commit", meta.Commit)
	return meta, nil
}

// UploadAssets discovers the local asset set and uploads it strictly
// sequentially, one file at a time in discovery order. Sequencing is a
// deliberate backpressure choice: one SFTP stream at a time. A file's
// failure is recorded and the remaining files are still attempted; the
// batch always runs to completion and the per-file outcomes are returned.
// The error return covers discovery only.
func (u *Uploader) UploadAssets(ctx context.Context) ([]AssetResult, error) {
	files, err := u.assets.Discover()
	if err != nil {
		return nil, err
	}

	results := make([]AssetResult, 0, len(files))
	for _, f := range files {
		results = append(results, AssetResult{Path: f.Path, Err: u.uploadAsset(ctx, f)})
	}
	return results, nil
}

func (u *Uploader) uploadAsset(ctx context.Context, f models.AssetFile) error {
	data, err := os.ReadFile(f.Source)
	if err != nil {
		u.log.Warn("could not read asset", "path", f.Path, "err", err)
		return &UploadError{Path: f.Path, Err: err}
	}

	remote := path.Join(u.rootDir, models.AssetsDirname, f.Path)
	if err := u.t.MkdirAll(ctx, path.Dir(remote)); err != nil {
		u.log.Warn("could not create asset directory", "path", remote, "err", err)
		return &UploadError{Path: f.Path, Err: err}
	}
	if err := u.t.WriteFile(ctx, remote, data); err != nil {
		u.log.Warn("could not upload asset", "path", f.Path, "err", err)
		return &UploadError{Path: f.Path, Err: err}
	}

	u.log.Debug("uploaded asset", "path", f.Path, "bytes", len(data))
	return nil
}
