// Package export renders record snapshots as CSV, JSON or PDF files and
// archives them to S3.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"tracker/internal/core"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts a format name in any case. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename is the suggested download name, e.g. expenses_2024-03-05.csv.
func Filename(now time.Time, f Format) string {
	return fmt.Sprintf("expenses_%s.%s", now.Format(core.DateLayout), f)
}

// Write renders records in format f.
func Write(w io.Writer, f Format, records []core.Expense) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatPDF:
		return WritePDF(w, records)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}
