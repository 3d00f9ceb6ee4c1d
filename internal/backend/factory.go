package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/store/csvfile"
	"tracker/internal/store/memory"
	"tracker/internal/store/mongo"
	"tracker/internal/store/sqlite"
)

const mongoConnectTimeout = 10 * time.Second

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		return f.createCSVBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVBackend(config Config) (*BackendResult, error) {
	f.logger.Info("Initialized CSV file backend", "path", config.CSVPath)
	return &BackendResult{Store: csvfile.New(config.CSVPath)}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if config.CSVPath == "" {
		f.logger.Info("Initialized empty memory backend")
		return &BackendResult{Store: memory.New()}, nil
	}

	s, err := memory.NewFromFile(ctx, config.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}
	records, _ := s.List(ctx)
	f.logger.Info("Initialized memory backend", "seed", config.CSVPath, "records", len(records))
	return &BackendResult{Store: s}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	s, disconnect, err := mongo.Connect(connectCtx, config.MongoURI, config.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	f.logger.Info("Initialized MongoDB backend", "database", config.MongoDatabase)
	return &BackendResult{
		Store: s,
		Cleanup: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
			defer cancel()
			return disconnect(ctx)
		},
	}, nil
}

// NewPublisher connects the change event publisher. An empty URL disables
// events; a broker that cannot be reached is logged and also disables them.
func NewPublisher(logger *slog.Logger, url, exchange, queue string) *amqp.Client {
	if logger == nil {
		logger = slog.Default()
	}
	if url == "" {
		logger.Info("AMQP not configured, change events disabled")
		return nil
	}

	client, err := amqp.NewClient(url, exchange, queue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	logger.Info("Initialized AMQP client",
		"exchange", exchange,
		"queue", queue)
	return client
}
