package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/store"
	"tracker/internal/store/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.ExpenseEvent
	err    error
	closed bool
}

func (f *fakePublisher) Publish(_ context.Context, ev *amqp.ExpenseEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func validDraft() core.Expense {
	return core.Expense{
		Date:     core.ParseDate("2024-03-05"),
		Category: "  Food\x00 ",
		Amount:   core.MustMoney("12.5"),
		Comment:  " lunch\x07",
	}
}

func TestExpenseService_CreateNormalizesAndPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewExpenseService(memory.New(), pub)

	created, err := svc.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Category != "Food" || created.Comment != "lunch" {
		t.Errorf("Create() did not normalize: %+v", created)
	}
	if created.ID == "" {
		t.Error("Create() should return the assigned id")
	}
	if len(pub.events) != 1 || pub.events[0].Op != amqp.OpCreated || pub.events[0].ID != created.ID {
		t.Errorf("published events = %+v", pub.events)
	}
}

func TestExpenseService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.Expense)
		wantErr error
	}{
		{"bad date", func(e *core.Expense) { e.Date = core.ParseDate("2024-13-40") }, core.ErrInvalidDate},
		{"blank category", func(e *core.Expense) { e.Category = "  \t " }, core.ErrEmptyCategory},
		{"long category", func(e *core.Expense) { e.Category = strings.Repeat("c", 101) }, core.ErrCategoryTooLong},
		{"negative amount", func(e *core.Expense) { e.Amount = core.ParseMoney("-1") }, core.ErrInvalidAmount},
		{"long comment", func(e *core.Expense) { e.Comment = strings.Repeat("x", 501) }, core.ErrCommentTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			s := memory.New()
			svc := NewExpenseService(s, pub)

			draft := validDraft()
			tt.mutate(&draft)
			_, err := svc.Create(context.Background(), draft)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if !core.IsValidation(err) {
				t.Error("error should be classified as validation")
			}
			records, _ := s.List(context.Background())
			if len(records) != 0 || len(pub.events) != 0 {
				t.Error("rejected command must not touch the store or publish")
			}
		})
	}
}

func TestExpenseService_ZeroAmountAccepted(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil)
	draft := validDraft()
	draft.Amount = core.MustMoney("0")
	if _, err := svc.Create(context.Background(), draft); err != nil {
		t.Errorf("Create() with zero amount error = %v", err)
	}
}

func TestExpenseService_PublishFailureDoesNotFailRequest(t *testing.T) {
	svc := NewExpenseService(memory.New(), &fakePublisher{err: errors.New("circuit breaker is open")})
	if _, err := svc.Create(context.Background(), validDraft()); err != nil {
		t.Errorf("Create() error = %v, want nil", err)
	}
}

func TestExpenseService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewExpenseService(memory.New(), pub)

	created, err := svc.Create(ctx, validDraft())
	if err != nil {
		t.Fatal(err)
	}

	comment := "  dinner "
	updated, err := svc.Update(ctx, created.ID, core.Patch{Comment: &comment})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Comment != "dinner" || updated.Category != "Food" {
		t.Errorf("Update() = %+v", updated)
	}

	if _, err := svc.Update(ctx, created.ID, core.Patch{}); !errors.Is(err, core.ErrEmptyPatch) {
		t.Errorf("empty patch error = %v, want ErrEmptyPatch", err)
	}
	blank := " "
	if _, err := svc.Update(ctx, created.ID, core.Patch{Category: &blank}); !errors.Is(err, core.ErrEmptyCategory) {
		t.Errorf("blank category patch error = %v, want ErrEmptyCategory", err)
	}
	if _, err := svc.Update(ctx, "missing", core.Patch{Comment: &comment}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}

	removed, err := svc.Delete(ctx, created.ID)
	if err != nil || removed.ID != created.ID {
		t.Fatalf("Delete() = %+v, %v", removed, err)
	}
	if _, err := svc.Delete(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}

	var ops []amqp.Op
	for _, ev := range pub.events {
		ops = append(ops, ev.Op)
	}
	want := []amqp.Op{amqp.OpCreated, amqp.OpUpdated, amqp.OpDeleted}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, ops[i], want[i])
		}
	}
}

func TestExpenseService_Close(t *testing.T) {
	t.Run("nil publisher", func(t *testing.T) {
		if err := NewExpenseService(memory.New(), nil).Close(); err != nil {
			t.Fatalf("Close should not return error with nil publisher: %v", err)
		}
	})

	t.Run("closes publisher", func(t *testing.T) {
		pub := &fakePublisher{}
		if err := NewExpenseService(memory.New(), pub).Close(); err != nil {
			t.Fatal(err)
		}
		if !pub.closed {
			t.Error("publisher was not closed")
		}
	})
}
