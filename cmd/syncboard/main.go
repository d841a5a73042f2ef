package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"

	"github.com/a-essam23/syncboard/internal/server"
	"github.com/a-essam23/syncboard/pkg/config"
	"github.com/a-essam23/syncboard/pkg/logging"
	"github.com/a-essam23/syncboard/pkg/store"
)

const version = "0.1.0"

func main() {
	usage := `Syncboard shared drawing server.

Usage:
    syncboard [--config=<file>]
    syncboard -h | --help
    syncboard --version

Options:
    -h --help        Show this screen.
    --version        Show version.
    --config=<file>  Config file name or path [default: config].`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		panic(err)
	}
	configName, _ := opts.String("--config")

	bootLogger := logging.New(logging.LevelInfo)
	cfg, err := config.Load(bootLogger, configName)
	if err != nil {
		bootLogger.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewWithWriter(os.Stderr, level, cfg.Logging.Format)
	slog.SetDefault(logger)

	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN, logger)
	if err != nil {
		logger.Error("Failed to open store", slog.String("driver", cfg.Store.Driver), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Store opened", slog.String("driver", cfg.Store.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(logger, ctx, cfg, st)
	if err != nil {
		logger.Error("Failed to build application", slog.Any("error", err))
		st.Close()
		os.Exit(1)
	}
	if err := app.Run(); err != nil {
		logger.Error("Application run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down successfully.")
}
