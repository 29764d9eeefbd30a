package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"static-deploy/activation"
	"static-deploy/assets"
	"static-deploy/commands"
	"static-deploy/config"
	"static-deploy/gitrev"
	"static-deploy/history"
	"static-deploy/logger"
	"static-deploy/repository"
	"static-deploy/retention"
	"static-deploy/transport"
	"static-deploy/uploader"
)

func main() {
	configPath := flag.String("config", "deploy.yml", "path to the config file")
	dryRun := flag.Bool("dry-run", false, "run against an in-memory remote instead of SFTP")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(2)
	}

	cmd, ok := commands.Get(flag.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", flag.Arg(0))
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	app := buildApp(cfg, log, *dryRun)

	// Close the remote session before any fatal error surfaces so no
	// invocation leaves a dangling connection.
	defer app.Transport.Close()
	if app.History != nil {
		defer app.History.Close()
	}

	if err := cmd.Run(context.Background(), app, flag.Args()[1:]); err != nil {
		app.Transport.Close()
		log.Error(fmt.Sprintf("%s failed", cmd.Name()), "err", err)
		os.Exit(1)
	}
}

func buildApp(cfg *config.Config, log *logger.Logger, dryRun bool) *commands.App {
	var t transport.Transport
	if dryRun {
		t = transport.NewMem()
	} else {
		t = transport.NewSFTP(transport.SSHOptions{
			Host:     cfg.SSH.Host,
			Port:     cfg.SSH.Port,
			User:     cfg.SSH.User,
			KeyFile:  cfg.SSH.KeyFile,
			Password: cfg.SSH.Password,
			Timeout:  cfg.SSH.Timeout,
		})
	}
	t = transport.WithLogging(t, log)

	repo := repository.New(t, cfg.RemoteDir)

	journal, err := history.Open(cfg.HistoryDB)
	if err != nil {
		// The journal is informational; a deploy proceeds without it.
		log.Warn("could not open deploy journal", "path", cfg.HistoryDB, "err", err)
		journal = nil
	}

	return &commands.App{
		Cfg:       cfg,
		Log:       log,
		Transport: t,
		Repo:      repo,
		Engine:    activation.NewEngine(t, repo, cfg.RemoteDir, log),
		Uploader: uploader.New(t, cfg.RemoteDir, cfg.RemoteRoot,
			gitrev.NewSource("."), assets.NewDiscoverer(cfg.BuildDir), log),
		Cleaner: retention.NewCleaner(t, cfg.RemoteDir, log),
		History: journal,
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: static-deploy [flags] <command> [args]")
	fmt.Fprintln(os.Stderr, "\nCommands:")
	for _, name := range commands.List() {
		cmd, _ := commands.Get(name)
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", name, cmd.Description())
	}
	fmt.Fprintln(os.Stderr, "\nFlags:")
	fmt.Fprintln(os.Stderr, "  -config string   path to the config file (default \"deploy.yml\")")
	fmt.Fprintln(os.Stderr, "  -dry-run         run against an in-memory remote instead of SFTP")
}
