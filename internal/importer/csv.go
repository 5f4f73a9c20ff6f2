package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// hostColumn is the column of the host cell (N) on the second row.
const hostColumn = 13

// ReadCSV reads a sheet exported as CSV. The first record holds the header
// cell, every later record is an attendee row, and the host is read from
// column N of the second record.
func ReadCSV(r io.Reader, title string) (Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("failed to read csv: %w", err)
	}

	sheet := Sheet{Title: title}
	if len(records) == 0 {
		return sheet, nil
	}

	if len(records[0]) > 0 {
		sheet.Header = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	sheet.Rows = records[1:]
	if len(sheet.Rows) > 0 && len(sheet.Rows[0]) > hostColumn {
		sheet.Host = sheet.Rows[0][hostColumn]
	}

	return sheet, nil
}

// ReadCSVFile reads a CSV export, using the file name without extension as
// the sheet title.
func ReadCSVFile(path string) (Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	base := filepath.Base(path)
	return ReadCSV(f, strings.TrimSuffix(base, filepath.Ext(base)))
}
