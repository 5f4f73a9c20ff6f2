package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/toastmixer/internal/metrics"
	"github.com/mmynk/toastmixer/internal/models"
)

// SessionLoader persists one imported session atomically.
type SessionLoader interface {
	ImportSession(ctx context.Context, s *models.Session, participants []*models.Participant) (int, error)
}

// Summary reports what an import did.
type Summary struct {
	Sheets        int `json:"sheets"`
	SkippedSheets int `json:"skippedSheets"`
	Rows          int `json:"rows"`
	SkippedRows   int `json:"skippedRows"`

	// Linked counts attendance links that did not exist before.
	Linked int `json:"linked"`
}

// Importer loads sheets into the roster.
type Importer struct {
	loader SessionLoader
}

// New creates an Importer writing through loader.
func New(loader SessionLoader) *Importer {
	return &Importer{loader: loader}
}

// Import loads each sheet in its own transaction. Sheets without a session
// date are skipped. Re-importing a sheet adds nothing new. The first failing
// sheet stops the import; sheets before it stay committed.
func (i *Importer) Import(ctx context.Context, sheets ...Sheet) (Summary, error) {
	var sum Summary

	for _, sheet := range sheets {
		parsed, err := ParseSheet(sheet)
		if errors.Is(err, ErrNoSessionDate) {
			slog.Warn("sheet skipped", "title", sheet.Title, "reason", err)
			sum.SkippedSheets++
			continue
		}
		if err != nil {
			return sum, err
		}

		linked, err := i.loader.ImportSession(ctx, parsed.Session, parsed.Participants)
		if err != nil {
			return sum, fmt.Errorf("failed to import sheet %q: %w", sheet.Title, err)
		}

		sum.Sheets++
		sum.Rows += len(parsed.Participants)
		sum.SkippedRows += parsed.Skipped
		sum.Linked += linked
		metrics.ImportRows.WithLabelValues("imported").Add(float64(len(parsed.Participants)))
		metrics.ImportRows.WithLabelValues("skipped").Add(float64(parsed.Skipped))

		slog.Info("sheet imported",
			"title", sheet.Title,
			"session_id", parsed.Session.ID,
			"date", parsed.Session.Date,
			"rows", len(parsed.Participants),
			"skipped", parsed.Skipped,
			"linked", linked,
		)
	}

	return sum, nil
}
