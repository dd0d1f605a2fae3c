package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	goflags "github.com/jessevdk/go-flags"

	"FlashMonitor/internal/app"
	"FlashMonitor/internal/config"
	"FlashMonitor/internal/lock"
	"FlashMonitor/internal/logging"
)

type options struct {
	Config string `short:"c" long:"config" description:"Path to YAML configuration file"`
	Once   bool   `long:"once" description:"Run a single poll iteration and exit"`
}

func main() {
	var opts options
	if _, err := goflags.Parse(&opts); err != nil {
		if goflags.WroteHelp(err) {
			return
		}
		os.Exit(2)
	}

	cfg := config.Load(opts.Config)
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx, opts.Once); err != nil {
		// Another live instance owns the lock: leave quietly, no side effects.
		if errors.Is(err, lock.ErrHeld) {
			return
		}
		logger.Error("monitor stopped", "error", err)
		os.Exit(1)
	}
}
