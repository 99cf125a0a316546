// Command salestree-import loads a CSV journal export into the local
// database. Rows it cannot read are reported and skipped.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"salestree/internal/config"
	"salestree/internal/core"
	"salestree/internal/importer"
	applog "salestree/internal/log"
	"salestree/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logConfig := applog.DefaultConfig()
	logConfig.Component = applog.ComponentImporter
	logger := applog.New(logConfig)
	applog.SetDefault(logger)

	replace := flag.Bool("replace", false, "replace the whole journal instead of appending")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file.csv>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Error("Failed to open input file", "error", err, "path", path)
		os.Exit(1)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		logger.Error("Failed to read CSV", "error", err, "path", path)
		os.Exit(1)
	}

	result, err := importer.Parse(records, core.Today())
	if err != nil {
		logger.Error("Failed to parse CSV", "error", err, "path", path)
		os.Exit(1)
	}
	for _, rowErr := range result.Skipped {
		logger.Warn("Skipped row", "row", rowErr.Row, "error", rowErr.Err)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()
	inserted := 0
	if *replace {
		if err := repo.ReplaceAll(ctx, result.Transactions); err != nil {
			logger.Error("Failed to replace journal", "error", err)
			os.Exit(1)
		}
		inserted = len(result.Transactions)
	} else {
		for _, t := range result.Transactions {
			if _, err := repo.Insert(ctx, t); err != nil {
				logger.Error("Failed to insert row", "error", err,
					"counterparty", t.Counterparty)
				os.Exit(1)
			}
			inserted++
		}
	}

	logger.Info("Import complete",
		"path", path,
		"imported", inserted,
		"skipped", len(result.Skipped),
		"replaced", *replace)
}
