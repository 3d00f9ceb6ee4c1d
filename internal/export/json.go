package export

import (
	"encoding/json"
	"fmt"
	"io"

	"tracker/internal/core"
)

func WriteJSON(w io.Writer, records []core.Expense) error {
	if records == nil {
		records = []core.Expense{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("error encoding JSON data: %w", err)
	}
	return nil
}
