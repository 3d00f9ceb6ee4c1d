// Package mongo stores records in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tracker/internal/core"
	"tracker/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ExpensesCollection = "expenses"

var _ store.Store = (*Store)(nil)

// Collection is the subset of *mongo.Collection the store uses.
type Collection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	FindOneAndDelete(ctx context.Context, filter interface{}, opts ...*options.FindOneAndDeleteOptions) *mongo.SingleResult
}

// expenseDoc keeps date and amount as text so malformed values survive.
type expenseDoc struct {
	ID        string `bson:"_id"`
	Date      string `bson:"date"`
	Category  string `bson:"category"`
	Amount    string `bson:"amount"`
	Comment   string `bson:"comment"`
	CreatedAt int64  `bson:"created_at"`
}

func toDoc(e core.Expense, createdAt int64) expenseDoc {
	return expenseDoc{
		ID:        e.ID,
		Date:      e.Date.String(),
		Category:  e.Category,
		Amount:    e.Amount.String(),
		Comment:   e.Comment,
		CreatedAt: createdAt,
	}
}

func (d expenseDoc) expense() core.Expense {
	return core.Expense{
		ID:       d.ID,
		Date:     core.ParseDate(d.Date),
		Category: d.Category,
		Amount:   core.ParseMoney(d.Amount),
		Comment:  d.Comment,
	}
}

type Store struct {
	coll Collection
	now  func() time.Time
}

func New(coll Collection) *Store {
	return &Store{coll: coll, now: time.Now}
}

// Connect opens a client, checks it with a ping and returns a store over
// database.expenses. The returned func disconnects the client.
func Connect(ctx context.Context, uri, database string) (*Store, func(context.Context) error, error) {
	slog.DebugContext(ctx, "Attempting to connect to MongoDB", "database", database)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.InfoContext(ctx, "Successfully established connection to MongoDB", "database", database)
	coll := client.Database(database).Collection(ExpensesCollection)
	return New(coll), client.Disconnect, nil
}

func (s *Store) List(ctx context.Context) ([]core.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]core.Expense, 0)
	for cur.Next(ctx) {
		var d expenseDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode expense: %w", err)
		}
		out = append(out, d.expense())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (s *Store) findDoc(ctx context.Context, id string) (expenseDoc, error) {
	var d expenseDoc
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return expenseDoc{}, store.ErrNotFound
		}
		return expenseDoc{}, fmt.Errorf("find expense %s: %w", id, err)
	}
	return d, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Expense, error) {
	d, err := s.findDoc(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	return d.expense(), nil
}

func (s *Store) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = core.NewID()
	if _, err := s.coll.InsertOne(ctx, toDoc(e, s.now().UnixNano())); err != nil {
		return core.Expense{}, fmt.Errorf("failed to perform InsertOne: %w", err)
	}
	slog.InfoContext(ctx, "Expense saved to MongoDB",
		"id", e.ID,
		"category", e.Category,
		"amount", e.Amount.String())
	return e, nil
}

func (s *Store) Update(ctx context.Context, id string, p core.Patch) (core.Expense, error) {
	current, err := s.findDoc(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	next := p.Apply(current.expense())

	res, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, toDoc(next, current.CreatedAt))
	if err != nil {
		return core.Expense{}, fmt.Errorf("failed to perform ReplaceOne: %w", err)
	}
	if res.MatchedCount == 0 {
		return core.Expense{}, store.ErrNotFound
	}
	return next, nil
}

func (s *Store) Delete(ctx context.Context, id string) (core.Expense, error) {
	var d expenseDoc
	if err := s.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.Expense{}, store.ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("delete expense %s: %w", id, err)
	}
	return d.expense(), nil
}
