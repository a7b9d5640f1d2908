package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"cif2gtfs.openrail.dev/internal/app"
	"cif2gtfs.openrail.dev/internal/appconf"
)

func main() {
	var configPath, env, stagingDB, outputDB string

	flag.StringVar(&configPath, "config", "config.yml", "Path to the YAML configuration file")
	flag.StringVar(&env, "env", "development", "Environment (development|test|production)")
	flag.StringVar(&stagingDB, "staging-db", "", "Override the staging database path")
	flag.StringVar(&outputDB, "output-db", "", "Override the output database path")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := appconf.LoadAppConfig(configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if stagingDB != "" {
		cfg.StagingDBPath = stagingDB
	}
	if outputDB != "" {
		cfg.OutputDBPath = outputDB
	}

	application := &app.Application{
		Config: cfg,
		Env:    appconf.EnvFromString(env),
		Logger: logger,
	}

	logger.Info("starting import",
		"staging_db", cfg.StagingDBPath,
		"output_db", cfg.OutputDBPath,
		"env", application.Env.String())

	if err := application.RunImport(context.Background()); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
