// Package csvfile persists records in a single CSV file.
//
// Every mutation reads the whole file, changes it in memory and writes it
// back through a temporary file and a rename, so readers never see a
// partially written file. A process wide lock serializes mutations.
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"tracker/internal/core"
	"tracker/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu   sync.RWMutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) List(ctx context.Context) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(ctx)
}

func (s *Store) Get(ctx context.Context, id string) (core.Expense, error) {
	records, err := s.List(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	if i := indexOf(records, id); i >= 0 {
		return records[i], nil
	}
	return core.Expense{}, store.ErrNotFound
}

func (s *Store) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	var created core.Expense
	err := s.mutate(ctx, func(records []core.Expense) ([]core.Expense, error) {
		e.ID = core.NewID()
		created = e
		return append(records, e), nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	slog.InfoContext(ctx, "Expense saved to CSV file",
		"id", created.ID,
		"category", created.Category,
		"amount", created.Amount.String(),
		"path", s.path)
	return created, nil
}

func (s *Store) Update(ctx context.Context, id string, p core.Patch) (core.Expense, error) {
	var updated core.Expense
	err := s.mutate(ctx, func(records []core.Expense) ([]core.Expense, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, store.ErrNotFound
		}
		records[i] = p.Apply(records[i])
		updated = records[i]
		return records, nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id string) (core.Expense, error) {
	var removed core.Expense
	err := s.mutate(ctx, func(records []core.Expense) ([]core.Expense, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, store.ErrNotFound
		}
		removed = records[i]
		return append(records[:i], records[i+1:]...), nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	return removed, nil
}

// mutate runs fn over the current file content under the write lock and
// persists the result.
func (s *Store) mutate(ctx context.Context, fn func([]core.Expense) ([]core.Expense, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(ctx)
	if err != nil {
		return err
	}
	next, err := fn(records)
	if err != nil {
		return err
	}
	return s.write(next)
}

// read must be called with mu held.
func (s *Store) read(ctx context.Context) ([]core.Expense, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []core.Expense{}, nil
		}
		return nil, fmt.Errorf("open records file: %w", err)
	}
	defer f.Close()

	records, malformed, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode records file %s: %w", s.path, err)
	}
	if malformed > 0 {
		slog.WarnContext(ctx, "Records file contains malformed rows",
			"path", s.path,
			"malformed", malformed,
			"total", len(records))
	}
	return records, nil
}

// write must be called with mu held.
func (s *Store) write(records []core.Expense) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".records-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, records, StoreColumns); err != nil {
		tmp.Close()
		return fmt.Errorf("encode records: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace records file: %w", err)
	}
	return nil
}

func indexOf(records []core.Expense, id string) int {
	if id == "" {
		return -1
	}
	for i, e := range records {
		if e.ID == id {
			return i
		}
	}
	return -1
}
