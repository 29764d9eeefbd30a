// Package gitrev builds revision metadata from the local git checkout: it
// creates the deploy tag that becomes the revision id and reads the latest
// commit's hash, author, date and message.
package gitrev

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"static-deploy/models"
)

// MetadataError means the commit info or deploy tag could not be produced.
type MetadataError struct {
	Op  string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("could not generate revision metadata (%s): %v", e.Op, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// logFormat yields hash, author, commit date (strict ISO 8601) and subject
// on separate lines.
const logFormat = "%H%n%an <%ae>%n%cI%n%s"

// Source generates RevisionMetadata for the checkout at Dir.
type Source struct {
	Dir string

	// run is swappable for tests; defaults to executing git.
	run func(ctx context.Context, dir string, args ...string) (string, error)
}

// NewSource returns a Source reading the git checkout at dir ("." for the
// working directory).
func NewSource(dir string) *Source {
	return &Source{Dir: dir, run: runGit}
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Generate creates a deploy tag and combines it with the latest commit's
// info. When revision is non-empty it is used as the id verbatim and no tag
// is created.
func (s *Source) Generate(ctx context.Context, revision string) (models.RevisionMetadata, error) {
	if revision == "" {
		tag, err := s.createTag(ctx)
		if err != nil {
			return models.RevisionMetadata{}, err
		}
		revision = tag
	}

	out, err := s.run(ctx, s.Dir, "log", "-1", "--pretty=format:"+logFormat)
	if err != nil {
		return models.RevisionMetadata{}, &MetadataError{Op: "commit info", Err: err}
	}

	lines := strings.SplitN(out, "\n", 4)
	if len(lines) < 4 {
		return models.RevisionMetadata{}, &MetadataError{
			Op:  "commit info",
			Err: fmt.Errorf("unexpected git log output: %q", out),
		}
	}

	return models.RevisionMetadata{
		Revision: revision,
		Commit:   lines[0],
		Author:   lines[1],
		Date:     lines[2],
		Message:  lines[3],
	}, nil
}

// createTag tags HEAD with a fresh deploy tag. The timestamp keeps tags
// sortable for humans; the uuid suffix keeps them unique when two deploys
// land in the same second.
func (s *Source) createTag(ctx context.Context) (string, error) {
	tag := fmt.Sprintf("deploy-%s-%s",
		time.Now().UTC().Format("20060102-150405"),
		uuid.NewString()[:8])
	if _, err := s.run(ctx, s.Dir, "tag", tag); err != nil {
		return "", &MetadataError{Op: "create tag", Err: err}
	}
	return tag, nil
}
