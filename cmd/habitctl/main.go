package main

import (
	"fmt"
	"os"

	"github.com/habitlog/internal/cli"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	applog "github.com/habitlog/internal/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	loc, _ := cfg.Location()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentCLI,
		Output:    os.Stderr,
	})

	if err := db.Init(cfg.DatabasePath); err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	app := &cli.App{
		DB:       db.DB,
		Logger:   logger,
		Location: loc,
		Out:      os.Stdout,
	}
	return cli.NewRootCmd(app).Execute()
}
