// Package retention decides which old revisions to delete and performs the
// best-effort cleanup.
package retention

import (
	"context"
	"path"

	"static-deploy/logger"
	"static-deploy/models"
	"static-deploy/transport"
)

// Prune returns the revisions to delete: the oldest entries beyond the
// manifest size. The input must already be sorted most recent first. The
// currently active revision is never selected, even when it falls outside
// the retained window (reactivating an old revision must not get it
// deleted out from under the pointer). Pure function, no side effects.
func Prune(sorted []models.RevisionRecord, manifestSize int, activeRevision string) []models.RevisionRecord {
	if manifestSize < 1 || len(sorted) <= manifestSize {
		return nil
	}

	var victims []models.RevisionRecord
	for _, rec := range sorted[manifestSize:] {
		if rec.Meta.Revision == activeRevision {
			continue
		}
		victims = append(victims, rec)
	}
	return victims
}

// Cleaner deletes pruned revision directories from the remote host.
type Cleaner struct {
	t   transport.Transport
	dir string
	log *logger.Logger
}

// NewCleaner returns a cleaner for the revision directory dir.
func NewCleaner(t transport.Transport, dir string, log *logger.Logger) *Cleaner {
	return &Cleaner{t: t, dir: dir, log: log}
}

// Cleanup removes each victim's whole directory. A failure deleting one
// revision is logged and does not stop the others; the returned slice holds
// the revision ids that could not be deleted. Cleanup never fails the
// calling operation.
func (c *Cleaner) Cleanup(ctx context.Context, victims []models.RevisionRecord) []string {
	var failed []string
	for _, rec := range victims {
		dir := path.Join(c.dir, rec.Meta.Revision)
		if err := c.t.RemoveAll(ctx, dir); err != nil {
			c.log.Warn("could not delete old revision", "revision", rec.Meta.Revision, "err", err)
			failed = append(failed, rec.Meta.Revision)
			continue
		}
		c.log.Info("deleted old revision", "revision", rec.Meta.Revision, "date", rec.Meta.Date)
	}
	return failed
}
