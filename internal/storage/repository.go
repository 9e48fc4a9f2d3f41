package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SchemaVersion is the collection layout written by this build.
const SchemaVersion = 1

// ErrUnsupportedSchema is returned when a stored collection was written by a
// newer layout than this build understands.
var ErrUnsupportedSchema = errors.New("unsupported collection schema version")

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
	// A single writer connection keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

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

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load returns the stored collection for userID in insertion order. found is
// false when the user has never been saved.
func (r *SQLiteRepository) Load(ctx context.Context, userID string) ([]core.Transaction, bool, error) {
	var version int
	err := r.db.QueryRowContext(ctx,
		`SELECT schema_version FROM user_collections WHERE user_id = ?`, userID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read collection header: %w", err)
	}
	if version > SchemaVersion {
		return nil, false, fmt.Errorf("%w: %d", ErrUnsupportedSchema, version)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, category, description, date, type, created_at, updated_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY position`, userID)
	if err != nil {
		return nil, false, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		var (
			t                            core.Transaction
			amount, category, date, kind string
			createdAt, updatedAt         string
		)
		if err := rows.Scan(&t.ID, &amount, &category, &t.Description, &date, &kind, &createdAt, &updatedAt); err != nil {
			return nil, false, fmt.Errorf("scan transaction: %w", err)
		}
		if err := decodeRow(&t, amount, category, date, kind, createdAt, updatedAt); err != nil {
			return nil, false, fmt.Errorf("decode transaction %s: %w", t.ID, err)
		}
		t.UserID = userID
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, true, nil
}

// Save replaces the whole collection for userID in a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, userID string, txs []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_collections (user_id, schema_version, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			updated_at = excluded.updated_at`,
		userID, SchemaVersion, now); err != nil {
		return fmt.Errorf("upsert collection header: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions
			(user_id, id, position, amount, category, description, date, type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range txs {
		if _, err := stmt.ExecContext(ctx,
			userID,
			t.ID,
			i,
			t.Amount.String(),
			string(t.Category),
			t.Description,
			t.Date.String(),
			string(t.Type),
			t.CreatedAt.UTC().Format(time.RFC3339Nano),
			t.UpdatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.DebugContext(ctx, "Collection saved to SQLite", "user_id", userID, "count", len(txs))
	return nil
}

func decodeRow(t *core.Transaction, amount, category, date, kind, createdAt, updatedAt string) error {
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	t.Category = core.Category(category)
	if t.Date, err = core.ParseDate(date); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	t.Type = core.TransactionType(kind)
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return fmt.Errorf("updated_at: %w", err)
	}
	return nil
}
