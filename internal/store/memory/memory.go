package memory

import (
	"context"
	"fmt"
	"sync"

	"tracker/internal/core"
	"tracker/internal/store"
	"tracker/internal/store/csvfile"
)

var _ store.Store = (*Store)(nil)

// Store keeps records in process memory, in insertion order.
type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

func New(seed ...core.Expense) *Store {
	items := make([]core.Expense, len(seed))
	copy(items, seed)
	return &Store{items: items}
}

// NewFromFile seeds the store from a records file. A missing file gives
// an empty store.
func NewFromFile(ctx context.Context, path string) (*Store, error) {
	seed, err := csvfile.New(path).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return New(seed...), nil
}

func (s *Store) List(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, store.ErrNotFound
	}
	return s.items[i], nil
}

func (s *Store) Create(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = core.NewID()
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) Update(_ context.Context, id string, p core.Patch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, store.ErrNotFound
	}
	s.items[i] = p.Apply(s.items[i])
	return s.items[i], nil
}

func (s *Store) Delete(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, store.ErrNotFound
	}
	removed := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return removed, nil
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, e := range s.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}
