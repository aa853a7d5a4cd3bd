// Package main provides a tool to bulk-load the catalog.
//
// With no arguments it loads the built-in catalog if the catalog is empty.
// With --file it upserts every entry from a JSON seed file.
//
// Usage:
//
//	DATA_PATH=~/fable/data go run ./cmd/seed
//	DATA_PATH=~/fable/data go run ./cmd/seed --file books.json
package main

import (
	"context"
	"flag"
	"log"

	"github.com/fablesound/fable-server/internal/config"
	"github.com/fablesound/fable-server/internal/docstore"
	"github.com/fablesound/fable-server/internal/logger"
	"github.com/fablesound/fable-server/internal/search"
	"github.com/fablesound/fable-server/internal/service"
)

var seedFile = flag.String("file", "", "JSON seed file to upsert (defaults to the built-in catalog)")

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	store, err := docstore.OpenBadger(cfg.DocStorePath(), appLog.Logger)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer store.Close()

	index, err := search.Open(cfg.SearchIndexPath(), appLog.Logger)
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	catalog := service.NewCatalogService(store, index, cfg.Media.CurrentHost, cfg.Media.LegacyHost, appLog.Logger)
	ctx := context.Background()

	if *seedFile == "" {
		seeded, err := catalog.SeedIfEmpty(ctx)
		if err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
		appLog.Info("seed complete", "books", seeded)
		return
	}

	reqs, err := service.LoadSeedFile(*seedFile)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}
	books, err := catalog.UpsertBooks(ctx, reqs)
	if err != nil {
		log.Fatalf("Seed failed after %d books: %v", len(books), err)
	}
	appLog.Info("seed complete", "books", len(books))
}
