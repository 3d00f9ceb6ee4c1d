package store

import (
	"context"
	"errors"

	"tracker/internal/core"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// Ports for record persistence.
type (
	Reader interface {
		// List returns a point-in-time copy of every record, in storage order.
		List(ctx context.Context) ([]core.Expense, error)
		Get(ctx context.Context, id string) (core.Expense, error)
	}

	Writer interface {
		// Create assigns a fresh id and stores the record.
		Create(ctx context.Context, e core.Expense) (core.Expense, error)
		// Update overlays the patch on the stored record.
		Update(ctx context.Context, id string, p core.Patch) (core.Expense, error)
		// Delete removes the record and returns it.
		Delete(ctx context.Context, id string) (core.Expense, error)
	}

	Store interface {
		Reader
		Writer
	}
)
