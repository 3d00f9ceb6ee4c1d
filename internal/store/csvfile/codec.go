package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"tracker/internal/core"
)

// Column names a field of the tabular format.
type Column string

const (
	ColumnID       Column = "ID"
	ColumnDate     Column = "Date"
	ColumnCategory Column = "Category"
	ColumnAmount   Column = "Amount"
	ColumnComment  Column = "Comment"
)

var (
	// StoreColumns is the layout of the records file.
	StoreColumns = []Column{ColumnID, ColumnDate, ColumnCategory, ColumnAmount, ColumnComment}
	// ExportColumns is the layout of user facing exports.
	ExportColumns = []Column{ColumnDate, ColumnCategory, ColumnAmount, ColumnComment}

	ErrUnknownHeader = errors.New("csv header has no recognised columns")
)

// headerAliases maps lower-cased header text to a column. The legacy file
// layout used "Type" and "Amount (₹)".
var headerAliases = map[string]Column{
	"id":         ColumnID,
	"date":       ColumnDate,
	"category":   ColumnCategory,
	"type":       ColumnCategory,
	"amount":     ColumnAmount,
	"amount (₹)": ColumnAmount,
	"comment":    ColumnComment,
	"comments":   ColumnComment,
	"note":       ColumnComment,
}

func lookupColumn(header string) (Column, bool) {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	if c, ok := headerAliases[h]; ok {
		return c, true
	}
	if strings.HasPrefix(h, "amount") {
		return ColumnAmount, true
	}
	return "", false
}

func field(e core.Expense, c Column) string {
	switch c {
	case ColumnID:
		return e.ID
	case ColumnDate:
		return e.Date.String()
	case ColumnCategory:
		return e.Category
	case ColumnAmount:
		return e.Amount.String()
	case ColumnComment:
		return e.Comment
	}
	return ""
}

// Encode writes a header row and one row per record. Fields containing a
// separator, quote or line break are quoted with inner quotes doubled.
func Encode(w io.Writer, records []core.Expense, cols []Column) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = string(c)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(cols))
	for _, e := range records {
		for i, c := range cols {
			row[i] = field(e, c)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads records written by Encode, or by the legacy layout. Rows
// with a bad date or amount are kept as-is and counted in malformed. An
// empty input yields no records.
func Decode(r io.Reader) (records []core.Expense, malformed int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []core.Expense{}, 0, nil
		}
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	colIndex := make(map[Column]int)
	for i, h := range header {
		if c, ok := lookupColumn(h); ok {
			if _, dup := colIndex[c]; !dup {
				colIndex[c] = i
			}
		}
	}
	if len(colIndex) == 0 {
		return nil, 0, ErrUnknownHeader
	}

	get := func(row []string, c Column) string {
		i, ok := colIndex[c]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records = make([]core.Expense, 0)
	for {
		row, readErr := reader.Read()
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("read row %d: %w", len(records)+2, readErr)
		}
		if isBlank(row) {
			continue
		}
		e := core.Expense{
			ID:       get(row, ColumnID),
			Date:     core.ParseDate(get(row, ColumnDate)),
			Category: get(row, ColumnCategory),
			Amount:   core.ParseMoney(get(row, ColumnAmount)),
			Comment:  get(row, ColumnComment),
		}
		if !e.Date.Valid() || !e.Amount.Valid() {
			malformed++
		}
		records = append(records, e)
	}
	return records, malformed, nil
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
