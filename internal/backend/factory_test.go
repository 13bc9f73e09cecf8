package backend

import (
	"context"
	"testing"
	"time"

	"adminsum/internal/store"
)

func TestTypeIsValid(t *testing.T) {
	tests := []struct {
		backendType Type
		want        bool
	}{
		{SQLiteBackend, true},
		{SheetsBackend, true},
		{MemoryBackend, true},
		{Type("postgres"), false},
		{Type(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.backendType), func(t *testing.T) {
			if got := tt.backendType.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "memory backend",
			config: Config{Type: MemoryBackend},
		},
		{
			name:   "sqlite backend with path",
			config: Config{Type: SQLiteBackend, SQLiteDBPath: "./test.db"},
		},
		{
			name:    "sqlite backend missing path",
			config:  Config{Type: SQLiteBackend},
			wantErr: true,
		},
		{
			name:    "amqp url without exchange",
			config:  Config{Type: MemoryBackend, AMQPURL: "amqp://localhost:5672/"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			config:  Config{Type: Type("bogus")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	factory := NewFactory(nil)
	result, err := factory.CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if result.Store == nil || result.Notifier == nil || result.Feed == nil {
		t.Fatal("expected store, notifier, and feed to be wired")
	}

	// The in-process bus must loop a published change back to the feed.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, _, err := result.Feed.Changes(ctx)
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	if err := result.Notifier.Notify(ctx, store.Change{Op: store.OpInsert, IDs: []string{"a"}}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case change := <-changes:
		if change.Op != store.OpInsert {
			t.Errorf("op = %q, want %q", change.Op, store.OpInsert)
		}
	case <-time.After(time.Second):
		t.Fatal("change never delivered")
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	factory := NewFactory(nil)
	result, err := factory.CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: t.TempDir() + "/records.db",
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer result.Cleanup()

	if _, err := result.Store.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll on fresh store: %v", err)
	}
}
