package backend

import (
	"context"
	"time"

	"fintrack/internal/services"
	"fintrack/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store, the optional event publisher and the
// cleanup function releasing both.
type BackendResult struct {
	Store     store.TransactionStore
	Publisher services.EventPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Memory backend specific
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// Bolt specific
	BoltDBPath string

	// PostgreSQL specific
	DatabaseURL string

	// List cache
	Cache         CacheType
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Change events; empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	BoltBackend     BackendType = "bolt"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, BoltBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// CacheType selects the list cache placed in front of the store.
type CacheType string

const (
	NoCache    CacheType = "none"
	LRUCache   CacheType = "lru"
	RedisCache CacheType = "redis"
)

func (ct CacheType) IsValid() bool {
	switch ct {
	case "", NoCache, LRUCache, RedisCache:
		return true
	default:
		return false
	}
}
