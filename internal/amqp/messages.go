package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"tracker/internal/core"
)

// Op names the mutation that produced an event.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

func (o Op) valid() bool {
	switch o {
	case OpCreated, OpUpdated, OpDeleted:
		return true
	}
	return false
}

// ExpenseEvent announces a committed change to the record store. Consumers
// treat it as a hint and re-read the store rather than trusting Expense.
type ExpenseEvent struct {
	Op        Op            `json:"op"`
	ID        string        `json:"id"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewExpenseEvent creates an event for e.
func NewExpenseEvent(op Op, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Op:        op,
		ID:        e.ID,
		Expense:   &e,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes an event and rejects unknown operations.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Op.valid() {
		return nil, fmt.Errorf("unknown event op %q", msg.Op)
	}
	return &msg, nil
}
