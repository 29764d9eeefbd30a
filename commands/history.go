package commands

import (
	"context"
	"flag"
	"fmt"
)

type historyCommand struct{}

func (historyCommand) Name() string { return "history" }

func (historyCommand) Description() string {
	return "Show recent deploy attempts from the local journal"
}

func (historyCommand) Run(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("n", 20, "number of events to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app.History == nil {
		return fmt.Errorf("deploy journal is not available")
	}

	events, err := app.History.Recent(*limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No deploys recorded yet")
		return nil
	}

	fmt.Printf("%-20s %-10s %-8s %-40s %s\n", "WHEN", "ACTION", "STATUS", "REVISION", "ERROR")
	for _, ev := range events {
		fmt.Printf("%-20s %-10s %-8s %-40s %s\n",
			ev.FinishedAt.Format("2006-01-02 15:04:05"),
			ev.Action, ev.Status, ev.Revision, ev.Error)
	}
	return nil
}

func init() {
	register(historyCommand{})
}
