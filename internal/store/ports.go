// Package store defines the ports every record backend implements and the
// service that owns the authoritative collection.
package store

import (
	"context"
	"time"

	"adminsum/internal/core"
)

// Op tags a change event with the mutation that caused it. Consumers must
// not trust the payload as authoritative; any event triggers a full re-fetch.
type Op string

const (
	OpInsert Op = "insert"
	OpDelete Op = "delete"
	OpClear  Op = "clear"
)

// Change is a backend change notification.
type Change struct {
	Op        Op        `json:"op"`
	IDs       []string  `json:"ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Ports for outbound adapters.
type (
	// Lister retrieves the full collection, newest first. Equal timestamps
	// keep insertion order.
	Lister interface {
		FetchAll(ctx context.Context) ([]core.Record, error)
	}

	Writer interface {
		Insert(ctx context.Context, r core.Record) error
		// InsertMany performs a single batch write; the batch fails together.
		InsertMany(ctx context.Context, rs []core.Record) error
	}

	Deleter interface {
		// DeleteOne is a no-op when id is absent.
		DeleteOne(ctx context.Context, id string) error
		DeleteBatch(ctx context.Context, ids []string) error
	}

	// Store is a full record backend.
	Store interface {
		Lister
		Writer
		Deleter
	}
)

// Notifier publishes change events after successful mutations.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

// Feed delivers backend change events to the synchronization channel.
// A value on the error channel means the feed itself failed, which is a
// connection-level condition distinct from a single fetch failure.
type Feed interface {
	Changes(ctx context.Context) (<-chan Change, <-chan error, error)
}
