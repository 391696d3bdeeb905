package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/makkenzo/cnc-license-admin/internal/config"
	"github.com/makkenzo/cnc-license-admin/internal/storage/postgres"
	"github.com/makkenzo/cnc-license-admin/pkg/logger"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|redo|reset|up-to|down-to")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for up-to and down-to")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		fmt.Fprintf(os.Stderr, "migrations need storage driver %q, got %q\n", config.StorageDriverPostgres, cfg.Storage.Driver)
		os.Exit(1)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	var args []string
	switch *cmd {
	case "up-to", "down-to":
		if *version == "" {
			fmt.Fprintf(os.Stderr, "missing -version for %s\n", *cmd)
			os.Exit(1)
		}
		args = append(args, *version)
	}

	ctx := context.Background()
	pool, err := postgres.NewPgxPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, *cmd, appLogger, args...); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
}
