package commands

import (
	"context"
	"fmt"
	"time"
)

type assetsCommand struct{}

func (assetsCommand) Name() string { return "assets" }

func (assetsCommand) Description() string {
	return "Upload the build directory's assets to the remote assets/ tree"
}

func (assetsCommand) Run(ctx context.Context, app *App, args []string) error {
	started := time.Now()
	results, err := app.Uploader.UploadAssets(ctx)
	if err != nil {
		app.recordEvent("", "assets", started, err)
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("  FAILED %s: %v\n", res.Path, res.Err)
			continue
		}
		fmt.Printf("  ok     %s\n", res.Path)
	}

	var runErr error
	if failed > 0 {
		runErr = fmt.Errorf("%d of %d assets failed to upload", failed, len(results))
	}
	app.recordEvent("", "assets", started, runErr)
	if runErr != nil {
		return runErr
	}

	fmt.Printf("Uploaded %d assets\n", len(results))
	return nil
}

func init() {
	register(assetsCommand{})
}
