// Command shipit-mcp serves the run_task tool over MCP stdio.
//
// Configuration comes from the same environment variables as shipit. Logs
// go to stderr because stdout carries the protocol.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fwojciec/shipit/config"
	"github.com/fwojciec/shipit/internal/app"
	"github.com/fwojciec/shipit/mcpserver"
	"github.com/mattn/go-isatty"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "shipit-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Repository runs are optional here; Runner rejects them when the
	// sandbox or GitHub settings are missing.
	if err := cfg.Validate(false); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := app.NewLogger(cfg, os.Stderr, isatty.IsTerminal(os.Stderr.Fd()))
	if err != nil {
		return err
	}
	runner, err := app.NewRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("serving", "version", version, "remote", cfg.SandboxURL != "" && cfg.GitHubToken != "")
	return mcpserver.New(runner, version, mcpserver.WithLogger(logger)).ServeStdio()
}
