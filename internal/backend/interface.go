package backend

import (
	"context"

	"adminsum/internal/store"
)

// CleanupFunc releases backend resources on shutdown
type CleanupFunc func() error

// Result bundles everything a backend provides: the record store plus the
// change channel pair that keeps instances in sync. Notifier and Feed are
// always wired, either over AMQP or an in-process bus.
type Result struct {
	Store    store.Store
	Notifier store.Notifier
	Feed     store.Feed
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Change propagation, optional for every backend type
	AMQPURL      string
	AMQPExchange string
}

// Type represents the type of backend
type Type string

const (
	SQLiteBackend Type = "sqlite"
	SheetsBackend Type = "sheets"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
