// Command import loads attendance sheets exported as CSV into the roster.
//
// Each file is one sheet; its name carries the session date (YYYYMMDD).
//
//	import data/20240315.csv data/20240322.csv
//	import -server http://localhost:8080 data/*.csv
//
// Without -server the database named by DB_PATH (or config) is written
// directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/mmynk/toastmixer/internal/config"
	"github.com/mmynk/toastmixer/internal/importer"
	"github.com/mmynk/toastmixer/internal/roster"
	"github.com/mmynk/toastmixer/internal/service"
	"github.com/mmynk/toastmixer/internal/storage/sqlite"
	"github.com/mmynk/toastmixer/pkg/logging"
)

func main() {
	serverURL := flag.String("server", "", "import through a running server at this URL instead of the database")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-server URL] file.csv...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("Failed to load .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.Logging.Level))

	sheets := make([]importer.Sheet, 0, flag.NArg())
	for _, path := range flag.Args() {
		sheet, err := importer.ReadCSVFile(path)
		if err != nil {
			slog.Error("Failed to read sheet", "path", path, "error", err)
			os.Exit(1)
		}
		sheets = append(sheets, sheet)
	}

	ctx := context.Background()

	var summary importer.Summary
	if *serverURL != "" {
		summary, err = importRemote(ctx, *serverURL, sheets)
	} else {
		summary, err = importLocal(ctx, cfg.Database.Path, sheets)
	}
	if err != nil {
		slog.Error("Import failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Import complete",
		"sheets", summary.Sheets,
		"skipped_sheets", summary.SkippedSheets,
		"rows", summary.Rows,
		"skipped_rows", summary.SkippedRows,
		"linked", summary.Linked,
	)
}

func importLocal(ctx context.Context, dbPath string, sheets []importer.Sheet) (importer.Summary, error) {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return importer.Summary{}, err
	}
	defer store.Close()

	return importer.New(roster.New(store)).Import(ctx, sheets...)
}

func importRemote(ctx context.Context, url string, sheets []importer.Sheet) (importer.Summary, error) {
	client := service.NewClient(http.DefaultClient, url)
	resp, err := service.Call[service.ImportSheetsRequest, service.ImportSheetsResponse](ctx, client,
		service.RosterServiceImportSheetsProcedure, &service.ImportSheetsRequest{Sheets: sheets})
	if err != nil {
		return importer.Summary{}, err
	}
	return resp.Summary, nil
}
