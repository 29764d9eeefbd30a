package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"static-deploy/activation"
)

type activateCommand struct{}

func (activateCommand) Name() string { return "activate" }

func (activateCommand) Description() string {
	return "Point the live entry file at an uploaded revision"
}

func (activateCommand) Run(ctx context.Context, app *App, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return fmt.Errorf("usage: activate <revision>")
	}
	revision := args[0]

	started := time.Now()
	err := app.Engine.Activate(ctx, revision)
	app.recordEvent(revision, "activate", started, err)
	if err != nil {
		if errors.Is(err, activation.ErrUnknownRevision) {
			return fmt.Errorf("revision %s is not deployed (run 'list' to see revisions)", revision)
		}
		return fmt.Errorf("could not activate revision %s: %w", revision, err)
	}

	fmt.Printf("Revision %s is now live\n", revision)

	if hook := app.Cfg.PostActivate; hook != "" {
		code, err := app.Transport.Run(ctx, hook)
		if err != nil {
			app.Log.Warn("post-activate hook failed", "cmd", hook, "err", err)
		} else if code != 0 {
			app.Log.Warn("post-activate hook exited non-zero", "cmd", hook, "code", code)
		}
	}
	return nil
}

func init() {
	register(activateCommand{})
}
