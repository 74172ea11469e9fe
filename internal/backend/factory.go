package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/store"
	boltstore "fintrack/internal/store/bolt"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/postgres"
)

const (
	lruCacheSize    = 16
	cleanupInterval = time.Minute
	redisKeyPrefix  = "fintrack:"
)

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
		logger: logger.With("component", "backend"),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for _, c := range slices.Backward(closers) {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	s, closeStore, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	s, closeCache, err := f.wrapCache(ctx, config, s)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	result := &BackendResult{Store: s, Cleanup: cleanup}

	if client := f.createPublisher(config); client != nil {
		closers = append(closers, client.Close)
		result.Publisher = client
	}

	return result, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (store.TransactionStore, func() error, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil

	case BoltBackend:
		db, err := boltstore.New(config.BoltDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Bolt store: %w", err)
		}
		f.logger.Info("Initialized Bolt backend", "db_path", config.BoltDBPath)
		return db, db.Close, nil

	case PostgresBackend:
		pg, err := postgres.New(ctx, config.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL store: %w", err)
		}
		f.logger.Info("Initialized PostgreSQL backend")
		return pg, pg.Close, nil

	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		f.logger.Info("Initialized memory backend", "data_directory", dataDir)
		return memory.NewFromFiles(dataDir), nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) wrapCache(ctx context.Context, config Config, s store.TransactionStore) (store.TransactionStore, func() error, error) {
	switch config.Cache {
	case LRUCache:
		lru := cache.NewLRUCache[[]core.Transaction](lruCacheSize, config.CacheTTL)
		manager := cache.NewManager()
		manager.Register(lru)
		manager.StartCleanup(cleanupInterval)
		f.logger.Info("Enabled in-process list cache", "ttl", config.CacheTTL)
		return cache.NewCachedStore(s, lru), manager.Stop, nil

	case RedisCache:
		client, err := cache.NewRedisClient(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis cache: %w", err)
		}
		rc := cache.NewRedisCache[[]core.Transaction](client, redisKeyPrefix, config.CacheTTL)
		f.logger.Info("Enabled Redis list cache", "addr", config.RedisAddr, "ttl", config.CacheTTL)
		return cache.NewCachedStore(s, rc), client.Close, nil

	default:
		return s, nil, nil
	}
}

// createPublisher returns nil when events are disabled or the broker is
// unreachable; the API keeps serving without them.
func (f *DefaultFactory) createPublisher(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		f.logger.Info("AMQP_URL not set, change events disabled")
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
