// Package backend assembles a record store with its change channel pair
// from configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"adminsum/internal/amqp"
	"adminsum/internal/bus"
	"adminsum/internal/memory"
	"adminsum/internal/sheets"
	"adminsum/internal/storage"
	"adminsum/internal/store"
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
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		st      store.Store
		cleanup CleanupFunc
	)

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		st = repo
		cleanup = repo.Close
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	case SheetsBackend:
		cli, err := sheets.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		st = cli
		f.logger.Info("Initialized Google Sheets backend")

	case MemoryBackend:
		st = memory.New()
		f.logger.Info("Initialized memory backend")

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	notifier, feed, cleanup, err := f.createChangeChannel(config, cleanup)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, err
	}

	return &Result{
		Store:    st,
		Notifier: notifier,
		Feed:     feed,
		Cleanup:  cleanup,
	}, nil
}

// createChangeChannel wires change propagation. With an AMQP URL the events
// cross process boundaries; without one an in-process bus still feeds the
// local sync channel.
func (f *DefaultFactory) createChangeChannel(config Config, cleanup CleanupFunc) (store.Notifier, store.Feed, CleanupFunc, error) {
	if config.AMQPURL == "" {
		b := bus.New()
		f.logger.Info("Using in-process change bus")
		return b, b, cleanup, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange)
	if err != nil {
		return nil, nil, cleanup, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}
	f.logger.Info("Initialized AMQP change channel", "exchange", config.AMQPExchange)

	prev := cleanup
	combined := func() error {
		err := client.Close()
		if prev != nil {
			if prevErr := prev(); err == nil {
				err = prevErr
			}
		}
		return err
	}
	return client, client, combined, nil
}
