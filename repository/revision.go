// Package repository reads revision metadata from the remote host. Every
// listing re-reads the remote directory; nothing is cached.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"

	"static-deploy/models"
	"static-deploy/transport"
)

// ReadError means a revision's metadata was missing or unparsable. The
// whole fetch fails; there are no partial results.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("could not read revision metadata at %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Repository lists and parses the revisions under a remote directory.
type Repository struct {
	t   transport.Transport
	dir string
}

// New returns a repository over the revision directory dir.
func New(t transport.Transport, dir string) *Repository {
	return &Repository{t: t, dir: dir}
}

// FetchAll lists the remote revision directory and parses every revision's
// metadata document. Entries the tool itself maintains alongside revisions
// are skipped: the active pointer, a temporary pointer a crashed activation
// may have left behind, and the assets tree when it shares the directory.
// Listing order is not trusted; callers sort explicitly.
func (r *Repository) FetchAll(ctx context.Context) ([]models.RevisionRecord, error) {
	names, err := r.t.ListDir(ctx, r.dir)
	if err != nil {
		return nil, fmt.Errorf("could not list %s: %w", r.dir, err)
	}

	var records []models.RevisionRecord
	for _, name := range names {
		switch name {
		case models.EntryFilename, models.PointerTempFilename, models.AssetsDirname:
			continue
		}

		metaPath := path.Join(r.dir, name, models.MetadataFilename)
		data, err := r.t.ReadFile(ctx, metaPath)
		if err != nil {
			return nil, &ReadError{Path: metaPath, Err: err}
		}

		var meta models.RevisionMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, &ReadError{Path: metaPath, Err: err}
		}

		records = append(records, models.RevisionRecord{Filename: metaPath, Meta: meta})
	}

	return records, nil
}

// SortByDateDesc orders records most recent first by their parsed date.
// The sort is stable: records with equal (or unparsable, hence zero)
// timestamps keep their input order. Sorting twice yields the same order.
func SortByDateDesc(records []models.RevisionRecord) []models.RevisionRecord {
	sorted := make([]models.RevisionRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Meta.Time().After(sorted[j].Meta.Time())
	})
	return sorted
}

// Exists reports whether a record with the given revision id is present.
// Matching is by the metadata's revision field, not by filename.
func Exists(revision string, records []models.RevisionRecord) bool {
	for _, rec := range records {
		if rec.Meta.Revision == revision {
			return true
		}
	}
	return false
}

// ActiveRevision resolves the active pointer to a revision id. A missing
// pointer (or one whose target is not a revision entry file) yields "" with
// no error; any other transport failure is returned so callers can tell
// "nothing is active" from "the pointer state is unknown".
func (r *Repository) ActiveRevision(ctx context.Context) (string, error) {
	target, err := r.t.ReadLink(ctx, path.Join(r.dir, models.EntryFilename))
	if err != nil {
		if transport.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("could not read active pointer: %w", err)
	}
	// target looks like <dir>/<revision>/index.html
	if path.Base(target) != models.EntryFilename {
		return "", nil
	}
	return path.Base(path.Dir(target)), nil
}
