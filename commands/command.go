// Package commands implements the CLI subcommands. Each command file
// registers itself; the main package dispatches by name.
package commands

import (
	"context"
	"sort"
	"time"

	"static-deploy/activation"
	"static-deploy/config"
	"static-deploy/history"
	"static-deploy/logger"
	"static-deploy/repository"
	"static-deploy/retention"
	"static-deploy/transport"
	"static-deploy/uploader"
)

// App bundles the wired components a command runs against.
type App struct {
	Cfg       *config.Config
	Log       *logger.Logger
	Transport transport.Transport
	Repo      *repository.Repository
	Engine    *activation.Engine
	Uploader  *uploader.Uploader
	Cleaner   *retention.Cleaner
	History   *history.Store // nil when the journal could not be opened
}

// Command is one CLI subcommand.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, app *App, args []string) error
}

var registry = make(map[string]Command)

func register(cmd Command) {
	registry[cmd.Name()] = cmd
}

// Get looks up a command by name.
func Get(name string) (Command, bool) {
	cmd, ok := registry[name]
	return cmd, ok
}

// List returns all command names, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// recordEvent journals one deploy action. Best effort: a journal failure is
// logged and otherwise ignored.
func (a *App) recordEvent(revision, action string, started time.Time, runErr error) {
	if a.History == nil {
		return
	}
	ev := history.DeployEvent{
		Revision:   revision,
		Action:     action,
		Status:     "success",
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if runErr != nil {
		ev.Status = "failed"
		ev.Error = runErr.Error()
	}
	if err := a.History.Record(ev); err != nil {
		a.Log.Warn("could not record deploy event", "err", err)
	}
}
