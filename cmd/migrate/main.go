package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/diet-planner/internal/config"
	"github.com/fdg312/diet-planner/internal/dbmigrate"
	"github.com/fdg312/diet-planner/internal/logging"
)

func main() {
	dir := flag.String("dir", "", "migrations directory (default: embedded)")
	flag.Parse()

	logger := logging.Setup()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: migrate [-dir path] [%s]\n", strings.Join(dbmigrate.Commands, "|"))
		os.Exit(2)
	}

	command := flag.Arg(0)
	if !dbmigrate.IsCommand(command) {
		logger.Error("unsupported command", "command", command, "allowed", dbmigrate.Commands)
		os.Exit(2)
	}

	cfg := config.Load()
	dbURL, source, warning, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		logger.Error("migrate", "error", err)
		os.Exit(1)
	}

	if warning != "" {
		logger.Warn("migrate: " + warning)
	}
	logger.Info("migrate", "command", command, "using", source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := dbmigrate.Run(ctx, command, dbURL, *dir, logger); err != nil {
		logger.Error("migrate failed", "command", command, "error", err)
		os.Exit(1)
	}

	logger.Info("migrate completed", "command", command)
}
