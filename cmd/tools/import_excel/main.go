package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"item-catalog/internal/config"
	"item-catalog/internal/logger"
	"item-catalog/internal/store"
	"item-catalog/pkg/importer"
)

func main() {
	var (
		filePath    = flag.String("file", "", "Path to the .xlsx workbook")
		mappingPath = flag.String("mapping", "", "YAML column mapping (overrides IMPORT_MAPPING)")
		dryRun      = flag.Bool("dry-run", false, "Validate rows without writing")
		maxErrors   = flag.Int("max-errors", 50, "Abort after this many row errors")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Println("Usage: import_excel --file=items.xlsx [--mapping=mapping.yaml] [--dry-run] [--max-errors=50]")
		os.Exit(1)
	}

	cfg := config.Load()
	if *mappingPath == "" {
		*mappingPath = cfg.ImportMapping
	}

	zl, err := logger.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zl.Sync()
	}()

	ctx := context.Background()
	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.StoreDriver,
		DSN:         cfg.DBDSN,
		AutoMigrate: cfg.AutoMigrate,
	}, zl)
	if err != nil {
		log.Fatalf("Failed to open item store: %v", err)
	}
	defer st.Close()

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open Excel file: %v", err)
	}
	defer file.Close()

	fmt.Printf("Importing items from %s into %s store (dry_run=%v)\n", *filePath, cfg.StoreDriver, *dryRun)
	fmt.Println(strings.Repeat("=", 60))

	summary, err := importer.ImportExcel(ctx, st, file, importer.ImportOptions{
		MappingPath: *mappingPath,
		DryRun:      *dryRun,
		MaxErrors:   *maxErrors,
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("IMPORT SUMMARY")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Total inserted: %d\n", summary.Inserted)
	fmt.Printf("Total updated: %d\n", summary.Updated)
	fmt.Printf("Total skipped: %d\n", summary.Skipped)
	fmt.Printf("Total errors: %d\n", summary.Errors)
	fmt.Printf("Dry run: %v\n", summary.DryRun)

	if len(summary.Sheets) > 0 {
		fmt.Println("\nSheet Details:")
		for _, sheet := range summary.Sheets {
			fmt.Printf("  %s: inserted=%d, updated=%d, skipped=%d, errors=%d\n",
				sheet.Name, sheet.Inserted, sheet.Updated, sheet.Skipped, sheet.Errors)
			for _, sample := range sheet.Samples {
				fmt.Printf("      Row %d: %s\n", sample.Row, sample.Message)
			}
		}
	}
}
