package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/makkenzo/cnc-license-admin/internal/clock"
	"github.com/makkenzo/cnc-license-admin/internal/config"
	"github.com/makkenzo/cnc-license-admin/internal/service"
	"github.com/makkenzo/cnc-license-admin/internal/storage/postgres"
	"github.com/makkenzo/cnc-license-admin/pkg/logger"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	description := flag.String("description", "Admin panel", "Description stored with the key")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		log.Fatalf("API keys can only be persisted with storage driver %q", config.StorageDriverPostgres)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	ctx := context.Background()
	pool, err := postgres.NewPgxPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	svc := service.NewAPIKeyService(postgres.NewAPIKeyRepository(pool, appLogger), clock.System(), appLogger)
	created, err := svc.CreateAPIKey(ctx, *description)
	if err != nil {
		log.Fatalf("Failed to save API key to database: %v", err)
	}

	fmt.Printf("Generated API Key (SAVE THIS securely!):\n%s\n\n", created.FullKey)
	fmt.Printf("Prefix: %s\n", created.Prefix)
	fmt.Printf("API Key saved to database with ID: %s\n", created.ID)
}
