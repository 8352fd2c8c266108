// Command import-tours loads tours from a JSON file into the configured catalog store.
//
// Usage:
//
//	import-tours -import dev-data/tours.json
//	import-tours -delete
//	import-tours -delete -import dev-data/tours.json
//
// The store is selected by the CATALOG_* environment variables, see package config.
// Every tour goes through catalog.TourRepository.Create, so it is validated and gets its slug.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/AntonStoeckl/tour-catalog-go/config"
)

func main() {
	var (
		importFile = flag.String("import", "", "JSON file with an array of tours to import")
		deleteAll  = flag.Bool("delete", false, "delete all tours before importing")
		envFile    = flag.String("env", ".env", "optional env file with CATALOG_* variables")
	)

	flag.Parse()

	if *importFile == "" && !*deleteAll {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, *importFile, *deleteAll); err != nil {
		logger.Error("import failed", "error", err.Error())
		stop()
		os.Exit(1) //nolint:gocritic
	}
}

// run opens the configured store and executes the requested steps.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger, importFile string, deleteAll bool) error {
	store, closeStore, err := config.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	imp, err := newImporter(store, logger)
	if err != nil {
		return err
	}

	if deleteAll {
		if err := imp.deleteAll(ctx); err != nil {
			return err
		}
	}

	if importFile == "" {
		return nil
	}

	file, err := os.Open(importFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	inputs, err := decodeTours(file)
	if err != nil {
		return err
	}

	_, err = imp.importTours(ctx, inputs)

	return err
}
