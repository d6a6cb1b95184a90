package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"leaflet/leaflet"
	"leaflet/storage"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS extraction (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	saved_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS products (
	position INTEGER PRIMARY KEY,
	body     TEXT NOT NULL
);`

// Store keeps one row per product. The single extraction row tells an empty
// result apart from nothing saved yet.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context) ([]leaflet.Product, error) {
	var savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM extraction WHERE id = 1`).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNoProducts
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT body FROM products ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []leaflet.Product{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		var p leaflet.Product
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) Save(ctx context.Context, products []leaflet.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO products (position, body) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range products {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode product %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, i, string(body)); err != nil {
			return fmt.Errorf("failed to insert product %d: %w", i, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO extraction (id, saved_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at`,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record extraction: %w", err)
	}

	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ storage.Store = (*Store)(nil)
