package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/store"
)

// Publisher announces committed changes. *amqp.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// ExpenseService validates commands, applies them to the store and
// publishes change events.
type ExpenseService struct {
	store     store.Store
	publisher Publisher
}

// NewExpenseService creates the service. publisher may be nil.
func NewExpenseService(s store.Store, publisher Publisher) *ExpenseService {
	return &ExpenseService{
		store:     s,
		publisher: publisher,
	}
}

func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	return s.store.List(ctx)
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	return s.store.Get(ctx, id)
}

// Create stores a new expense. Any ID on draft is ignored.
func (s *ExpenseService) Create(ctx context.Context, draft core.Expense) (core.Expense, error) {
	draft = draft.Normalize()
	draft.ID = ""
	if err := draft.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.store.Create(ctx, draft)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.OpCreated, created)
	return created, nil
}

func (s *ExpenseService) Update(ctx context.Context, id string, p core.Patch) (core.Expense, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return core.Expense{}, err
	}

	updated, err := s.store.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.publish(ctx, amqp.OpUpdated, updated)
	return updated, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id string) (core.Expense, error) {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.OpDeleted, removed)
	return removed, nil
}

func (s *ExpenseService) publish(ctx context.Context, op amqp.Op, e core.Expense) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "op", op, "id", e.ID)
		return
	}
	// The change is committed; a lost event only delays mirrors until the next resync.
	if err := s.publisher.Publish(ctx, amqp.NewExpenseEvent(op, e)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"op", op,
			"id", e.ID,
			"error", err)
	}
}

// Close releases the publisher. The store is owned by whoever created it.
func (s *ExpenseService) Close() error {
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
