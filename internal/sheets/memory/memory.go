// Package memory is a SnapshotWriter that keeps the last snapshot in
// process, for local runs without Google credentials.
package memory

import (
	"context"
	"sync"

	"tracker/internal/core"
	ports "tracker/internal/sheets"
)

var _ ports.SnapshotWriter = (*Sheet)(nil)

type Sheet struct {
	mu     sync.Mutex
	rows   [][]any
	writes int
}

func New() *Sheet {
	return &Sheet{}
}

func (s *Sheet) WriteSnapshot(ctx context.Context, records []core.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := ports.Rows(records)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.writes++
	return nil
}

// Rows returns the last written rows, header included.
func (s *Sheet) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.rows...)
}

// Writes counts completed snapshots.
func (s *Sheet) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
