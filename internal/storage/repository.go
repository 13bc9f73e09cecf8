package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"adminsum/internal/core"

	_ "modernc.org/sqlite"
)

// Fixed-width UTC layout so created_at sorts correctly as text.
const timeLayout = "2006-01-02 15:04:05.000000000"

// SQLiteRepository implements store.Store on a local sqlite database. The
// seq column breaks createdAt ties by insertion order.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FetchAll implements store.Lister.
func (r *SQLiteRepository) FetchAll(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, value, category, created_at
		 FROM records
		 ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, core.Unavailable("fetch records", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var (
			rec      core.Record
			category sql.NullString
		)
		// The driver maps the TIMESTAMP-declared column to time.Time itself.
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Value, &category, &rec.CreatedAt); err != nil {
			return nil, core.Unavailable("scan record", err)
		}
		rec.Category = category.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Unavailable("iterate records", err)
	}
	return out, nil
}

// Insert implements store.Writer.
func (r *SQLiteRepository) Insert(ctx context.Context, rec core.Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO records (id, name, value, category, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Value, nullable(rec.Category), rec.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return core.Unavailable("insert record", err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite",
		"id", rec.ID,
		"name", rec.Name,
		"value", rec.Value,
		"category", rec.Category)

	return nil
}

// InsertMany implements store.Writer. The whole batch is one transaction, so
// it succeeds or fails together.
func (r *SQLiteRepository) InsertMany(ctx context.Context, recs []core.Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Unavailable("begin batch insert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, name, value, category, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return core.Unavailable("prepare batch insert", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.Name, rec.Value, nullable(rec.Category),
			rec.CreatedAt.UTC().Format(timeLayout)); err != nil {
			return core.Unavailable("insert batch record", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Unavailable("commit batch insert", err)
	}

	slog.InfoContext(ctx, "Record batch saved to SQLite", "count", len(recs))
	return nil
}

// DeleteOne implements store.Deleter. A missing id is not an error.
func (r *SQLiteRepository) DeleteOne(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return core.Unavailable("delete record", err)
	}
	return nil
}

// DeleteBatch implements store.Deleter.
func (r *SQLiteRepository) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf(`DELETE FROM records WHERE id IN (%s)`, placeholders)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return core.Unavailable("delete record batch", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
