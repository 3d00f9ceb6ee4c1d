package export

import (
	"fmt"
	"io"

	"tracker/internal/core"
	"tracker/internal/store/csvfile"
)

// WriteCSV writes the Date,Category,Amount,Comment layout.
func WriteCSV(w io.Writer, records []core.Expense) error {
	if err := csvfile.Encode(w, records, csvfile.ExportColumns); err != nil {
		return fmt.Errorf("error writing CSV export: %w", err)
	}
	return nil
}

// ReadCSV parses a file written by WriteCSV, or by the records file layout.
// Imported records carry no id.
func ReadCSV(r io.Reader) (records []core.Expense, malformed int, err error) {
	records, malformed, err = csvfile.Decode(r)
	if err != nil {
		return nil, 0, fmt.Errorf("error reading CSV import: %w", err)
	}
	for i := range records {
		records[i].ID = ""
	}
	return records, malformed, nil
}
