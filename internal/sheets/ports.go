package sheets

import (
	"context"

	"tracker/internal/core"
)

// Ports for outbound adapters.
type (
	// SnapshotWriter replaces the mirrored copy of the record set.
	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, records []core.Expense) error
	}
)

// Header is the first row of a mirrored sheet.
var Header = []any{"Date", "Category", "Amount", "Comment"}

// Rows renders records as sheet rows, header first. Valid amounts are
// numbers so the sheet can sum them; malformed ones keep their text.
func Rows(records []core.Expense) [][]any {
	out := make([][]any, 0, len(records)+1)
	out = append(out, Header)
	for _, e := range records {
		var amount any = e.Amount.String()
		if e.Amount.Valid() {
			amount = e.Amount.Float64()
		}
		out = append(out, []any{e.Date.String(), e.Category, amount, e.Comment})
	}
	return out
}
