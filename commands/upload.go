package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
)

type uploadCommand struct{}

func (uploadCommand) Name() string { return "upload" }

func (uploadCommand) Description() string {
	return "Upload the entry file as a new revision"
}

func (uploadCommand) Run(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	revision := fs.String("revision", "", "revision id (default: a fresh deploy tag)")
	entryPath := fs.String("entry", app.Cfg.EntryFile, "local entry file to upload")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entry, err := os.ReadFile(*entryPath)
	if err != nil {
		return fmt.Errorf("could not read entry file %s: %w", *entryPath, err)
	}

	started := time.Now()
	meta, err := app.Uploader.Upload(ctx, entry, *revision)
	app.recordEvent(meta.Revision, "upload", started, err)
	if err != nil {
		return err
	}

	fmt.Printf("Uploaded revision %s\n", meta.Revision)
	fmt.Printf("  commit:  %s\n", meta.Commit)
	fmt.Printf("  author:  %s\n", meta.Author)
	fmt.Printf("  date:    %s\n", meta.Date)
	fmt.Printf("  message: %s\n", meta.Message)
	return nil
}

func init() {
	register(uploadCommand{})
}
