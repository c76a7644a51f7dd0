package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/formdoc/internal/app"
	"github.com/dmitrijs2005/formdoc/internal/cli"
	"github.com/dmitrijs2005/formdoc/internal/config"
	"github.com/dmitrijs2005/formdoc/internal/logging"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	core, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer core.Close()

	if err := cli.New(core, os.Stdin, os.Stdout, os.Stderr).Run(ctx); err != nil {
		logger.Error(ctx, "formdoc stopped", "error", err)
	}
}
