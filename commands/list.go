package commands

import (
	"context"
	"fmt"
	"time"

	"static-deploy/repository"
	"static-deploy/retention"
)

type listCommand struct{}

func (listCommand) Name() string { return "list" }

func (listCommand) Description() string {
	return "List remote revisions and prune those beyond the manifest size"
}

func (listCommand) Run(ctx context.Context, app *App, args []string) error {
	records, err := app.Repo.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("could not list revisions: %w", err)
	}

	sorted := repository.SortByDateDesc(records)
	active, activeErr := app.Repo.ActiveRevision(ctx)

	if len(sorted) == 0 {
		fmt.Println("No revisions deployed yet")
		return nil
	}

	fmt.Printf("%-40s %-12s %-26s %s\n", "REVISION", "COMMIT", "DATE", "MESSAGE")
	for _, rec := range sorted {
		marker := " "
		if rec.Meta.Revision == active {
			marker = "*"
		}
		commit := rec.Meta.Commit
		if len(commit) > 10 {
			commit = commit[:10]
		}
		fmt.Printf("%s%-39s %-12s %-26s %s\n", marker, rec.Meta.Revision, commit, rec.Meta.Date, rec.Meta.Message)
	}

	// Retention runs as a side effect of listing; deletion failures are
	// reported but never fail the listing itself. When the pointer state
	// is unknown, pruning is skipped entirely rather than risk deleting
	// the live revision.
	if activeErr != nil {
		app.Log.Warn("could not resolve active revision, skipping retention", "err", activeErr)
		return nil
	}
	victims := retention.Prune(sorted, app.Cfg.ManifestSize, active)
	if len(victims) > 0 {
		started := time.Now()
		failed := app.Cleaner.Cleanup(ctx, victims)
		var runErr error
		if len(failed) > 0 {
			runErr = fmt.Errorf("could not delete revisions: %v", failed)
		}
		app.recordEvent("", "prune", started, runErr)
		fmt.Printf("Pruned %d old revisions\n", len(victims)-len(failed))
	}

	return nil
}

func init() {
	register(listCommand{})
}
