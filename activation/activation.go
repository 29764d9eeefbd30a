// Package activation switches the active pointer between revisions.
package activation

import (
	"context"
	"fmt"
	"path"

	"static-deploy/logger"
	"static-deploy/models"
	"static-deploy/repository"
	"static-deploy/transport"
)

// ErrUnknownRevision means the activation target does not exist remotely.
// No mutation has been attempted when it is returned.
var ErrUnknownRevision = fmt.Errorf("unknown revision")

// ActivationError means the pointer swap itself failed. PointerLost marks
// the pointer-less state: the old pointer was removed but the new one could
// not be created.
type ActivationError struct {
	Revision    string
	PointerLost bool
	Err         error
}

func (e *ActivationError) Error() string {
	if e.PointerLost {
		return fmt.Sprintf("could not activate revision %s: no active pointer remains: %v", e.Revision, e.Err)
	}
	return fmt.Sprintf("could not activate revision %s: %v", e.Revision, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }

// Engine repoints the active entry file at a chosen revision.
type Engine struct {
	t    transport.Transport
	repo *repository.Repository
	dir  string
	log  *logger.Logger
}

// NewEngine returns an activation engine for the revision directory dir.
func NewEngine(t transport.Transport, repo *repository.Repository, dir string, log *logger.Logger) *Engine {
	return &Engine{t: t, repo: repo, dir: dir, log: log}
}

// Activate validates that the revision exists remotely, then swaps the
// active pointer to it. The swap prefers an atomic rename: the new symlink
// is created under a temporary name and renamed over the pointer, so there
// is no window without a valid pointer. Servers without posix-rename fall
// back to remove-then-link, which has a brief pointer-less window; a link
// failure there surfaces as an ActivationError with PointerLost set.
func (e *Engine) Activate(ctx context.Context, revision string) error {
	records, err := e.repo.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch revisions: %w", err)
	}
	if !repository.Exists(revision, records) {
		return fmt.Errorf("%w: %s", ErrUnknownRevision, revision)
	}

	target := path.Join(e.dir, revision, models.EntryFilename)
	link := path.Join(e.dir, models.EntryFilename)
	tmp := path.Join(e.dir, models.PointerTempFilename)

	// A stale temporary link from an interrupted activation would make
	// the symlink call fail.
	if err := e.t.Remove(ctx, tmp); err != nil && !transport.IsNotExist(err) {
		return &ActivationError{Revision: revision, Err: err}
	}
	if err := e.t.Symlink(ctx, target, tmp); err != nil {
		return &ActivationError{Revision: revision, Err: err}
	}

	if err := e.t.Rename(ctx, tmp, link); err == nil {
		e.log.Info("activated revision", "revision", revision)
		return nil
	}

	// Fallback: documented remove-then-link order.
	e.log.Debug("atomic rename unsupported, falling back to remove-then-link")
	if err := e.t.Remove(ctx, link); err != nil && !transport.IsNotExist(err) {
		e.removeTemp(ctx, tmp)
		return &ActivationError{Revision: revision, Err: err}
	}
	if err := e.t.Symlink(ctx, target, link); err != nil {
		e.removeTemp(ctx, tmp)
		return &ActivationError{Revision: revision, PointerLost: true, Err: err}
	}
	e.removeTemp(ctx, tmp)

	e.log.Info("activated revision", "revision", revision)
	return nil
}

func (e *Engine) removeTemp(ctx context.Context, tmp string) {
	if err := e.t.Remove(ctx, tmp); err != nil && !transport.IsNotExist(err) {
		e.log.Warn("could not remove temporary pointer", "path", tmp, "err", err)
	}
}
